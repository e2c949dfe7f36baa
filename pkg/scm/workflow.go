package scm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
)

// Steps are the host-specific calls behind a submission. Each method is a
// single remote call except Commit, which may take several on hosts without
// a multi-file commit API but must publish all files at once.
type Steps interface {
	// Name identifies the host in logs and metrics.
	Name() string
	// ResolveBranch returns the commit SHA at the head of branch.
	ResolveBranch(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, branch, sha string) error
	// Commit writes files onto branch, whose head is baseSHA, as one commit.
	Commit(ctx context.Context, branch, baseSHA, message string, files []manifest.File) error
	// OpenRequest opens a pull or merge request and returns its web URL.
	OpenRequest(ctx context.Context, head, base, title, body string) (string, error)
	DeleteBranch(ctx context.Context, branch string) error
	// Status extracts the HTTP status from an error returned by the other
	// methods, or 0 when the host never answered.
	Status(err error) int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithCleanup deletes the deploy branch when committing or opening the
// request fails. Off by default, leaving the branch for inspection.
func WithCleanup(enabled bool) Option {
	return func(w *Workflow) {
		w.cleanup = enabled
	}
}

// Workflow is the Provider shared by all hosts.
type Workflow struct {
	steps      Steps
	baseBranch string
	cleanup    bool
	branchName func(appName string) string
}

var _ Provider = (*Workflow)(nil)

// NewWorkflow returns a Provider driving steps against baseBranch.
func NewWorkflow(steps Steps, baseBranch string, opts ...Option) *Workflow {
	w := &Workflow{
		steps:      steps,
		baseBranch: baseBranch,
		branchName: NewBranchName,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SubmitChangeRequest implements Provider.
func (w *Workflow) SubmitChangeRequest(ctx context.Context, cr *ChangeRequest) (result *Result, err error) {
	start := time.Now()
	provider := w.steps.Name()
	defer func() {
		submissionDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = string(errors.CodeOf(err))
		}
		submissionsTotal.WithLabelValues(provider, outcome).Inc()
	}()

	if err := cr.Validate(); err != nil {
		return nil, err
	}

	base := cr.BaseBranch
	if base == "" {
		base = w.baseBranch
	}
	log := slog.With("provider", provider, "app", cr.AppName, "base", base)

	log.Debug("resolving base branch")
	sha, err := w.steps.ResolveBranch(ctx, base)
	if err != nil {
		if w.steps.Status(err) == http.StatusNotFound {
			return nil, errors.WrapWithContext(errors.ErrCodeBranchNotFound,
				"base branch not found", err, map[string]any{"branch": base})
		}
		return nil, w.stepError(errors.ErrCodeTransport, "failed to resolve base branch", err,
			map[string]any{"branch": base})
	}

	branch := w.branchName(cr.AppName)
	log = log.With("branch", branch)

	log.Debug("creating deploy branch", "sha", sha)
	if err := w.steps.CreateBranch(ctx, branch, sha); err != nil {
		return nil, w.stepError(errors.ErrCodeBranchCreationFailed, "failed to create deploy branch", err,
			map[string]any{"branch": branch, "sha": sha})
	}

	files := cr.Files.Paths(cr.AppName)
	log.Debug("committing manifests", "files", len(files))
	if err := w.steps.Commit(ctx, branch, sha, cr.CommitMessage(), files); err != nil {
		w.abandon(ctx, log, branch)
		return nil, w.stepError(errors.ErrCodeCommitFailed, "failed to commit manifests", err,
			map[string]any{"branch": branch})
	}

	log.Debug("opening change request")
	url, err := w.steps.OpenRequest(ctx, branch, base, cr.Title, cr.Body)
	if err != nil {
		w.abandon(ctx, log, branch)
		return nil, w.stepError(errors.ErrCodeRequestCreationFailed, "failed to open change request", err,
			map[string]any{"branch": branch})
	}

	log.Info("change request opened", "url", url)
	return &Result{URL: url, Branch: branch, BaseBranch: base}, nil
}

// stepError wraps a failed step, keeping the host's message in the cause.
// Calls that never got a response are transport errors.
func (w *Workflow) stepError(code errors.ErrorCode, message string, err error, details map[string]any) error {
	if status := w.steps.Status(err); status != 0 {
		details["status"] = status
	} else {
		code = errors.ErrCodeTransport
	}
	details["provider"] = w.steps.Name()
	return errors.WrapWithContext(code, message, err, details)
}

func (w *Workflow) abandon(ctx context.Context, log *slog.Logger, branch string) {
	if !w.cleanup {
		orphanedBranches.WithLabelValues(w.steps.Name()).Inc()
		log.Warn("deploy branch left without a change request, delete it manually")
		return
	}

	// The submission context may already be done; cleanup gets its own budget.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.BranchCleanupTimeout)
	defer cancel()

	if err := w.steps.DeleteBranch(cctx, branch); err != nil {
		orphanedBranches.WithLabelValues(w.steps.Name()).Inc()
		log.Error("failed to delete deploy branch", "error", err)
		return
	}
	log.Info("deleted deploy branch after failed submission")
}
