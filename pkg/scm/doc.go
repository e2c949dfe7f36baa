// Package scm opens change requests carrying rendered manifests against a
// GitOps repository.
//
// A Provider performs the same six steps on every host:
//
//  1. Resolve the base branch to a commit. A missing branch fails with
//     BRANCH_NOT_FOUND before anything is written.
//  2. Derive a branch name deploy/{app}-{6 hex}.
//  3. Create the branch at the base commit (BRANCH_CREATION_FAILED).
//  4. Commit every file under apps/{app}/ in a single commit (COMMIT_FAILED).
//  5. Open the pull or merge request (REQUEST_CREATION_FAILED).
//  6. Return its web URL.
//
// Steps are never retried. A failure in step 4 or 5 leaves the new branch
// behind unless the provider was built with cleanup enabled, in which case
// the branch is deleted before the error is returned.
//
// Hosts plug in by implementing Steps and registering a Factory from init:
//
//	func init() {
//	    scm.MustRegister(config.ProviderGitHub, func(cfg *config.Config) (scm.Provider, error) {
//	        return New(cfg.GitHub, WithCleanup(cfg.CleanupOnFailure))
//	    })
//	}
//
// New then selects the implementation from configuration:
//
//	provider, err := scm.New(cfg)
//	result, err := provider.SubmitChangeRequest(ctx, &scm.ChangeRequest{
//	    AppName: "orders-api",
//	    Files:   set,
//	    Title:   "Deploy: orders-api",
//	    Body:    body,
//	})
package scm
