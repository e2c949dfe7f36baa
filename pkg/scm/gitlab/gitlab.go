// Package gitlab submits change requests through the GitLab REST API.
//
// All manifests land in one multi-action commit call. Files that already
// exist at the base commit are written with an update action so an app can
// be redeployed; the rest are created.
package gitlab

import (
	"context"
	stderrors "errors"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/scm"
	"github.com/NVIDIA/gitops-portal/pkg/serializer"
)

const (
	name      = "gitlab"
	userAgent = "gitops-portal-gitlab/1.0"
)

func init() {
	scm.MustRegister(config.ProviderGitLab, func(cfg *config.Config) (scm.Provider, error) {
		return New(cfg.GitLab, nil, scm.WithCleanup(cfg.CleanupOnFailure))
	})
}

// Client implements scm.Steps for one GitLab project.
type Client struct {
	gl      *gl.Client
	project string
}

var _ scm.Steps = (*Client)(nil)

// NewClient returns a Client for cfg.ProjectID. The GitLab client's own
// retries are disabled; every step is attempted once.
func NewClient(cfg config.GitLabConfig, hc *http.Client) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "gitlab.project_id is required")
	}
	if hc == nil {
		hc = serializer.NewHttpReader(serializer.WithUserAgent(userAgent)).Client
	}

	client, err := gl.NewClient(cfg.Token,
		gl.WithBaseURL(cfg.URL),
		gl.WithHTTPClient(hc),
		gl.WithoutRetries(),
	)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfiguration,
			"invalid gitlab configuration", err, map[string]any{"url": cfg.URL})
	}
	client.UserAgent = userAgent

	return &Client{gl: client, project: cfg.ProjectID}, nil
}

// New returns the GitLab provider targeting cfg.BaseBranch.
func New(cfg config.GitLabConfig, hc *http.Client, opts ...scm.Option) (*scm.Workflow, error) {
	c, err := NewClient(cfg, hc)
	if err != nil {
		return nil, err
	}
	return scm.NewWorkflow(c, cfg.BaseBranch, opts...), nil
}

// Name implements scm.Steps.
func (c *Client) Name() string { return name }

// ResolveBranch implements scm.Steps.
func (c *Client) ResolveBranch(ctx context.Context, branch string) (string, error) {
	b, _, err := c.gl.Branches.GetBranch(c.project, branch, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if b.Commit == nil || b.Commit.ID == "" {
		return "", stderrors.New("branch has no commit")
	}
	return b.Commit.ID, nil
}

// CreateBranch implements scm.Steps.
func (c *Client) CreateBranch(ctx context.Context, branch, sha string) error {
	_, _, err := c.gl.Branches.CreateBranch(c.project, &gl.CreateBranchOptions{
		Branch: gl.Ptr(branch),
		Ref:    gl.Ptr(sha),
	}, gl.WithContext(ctx))
	return err
}

// Commit implements scm.Steps.
func (c *Client) Commit(ctx context.Context, branch, baseSHA, message string, files []manifest.File) error {
	actions, err := c.actions(ctx, baseSHA, files)
	if err != nil {
		return err
	}

	_, _, err = c.gl.Commits.CreateCommit(c.project, &gl.CreateCommitOptions{
		Branch:        gl.Ptr(branch),
		CommitMessage: gl.Ptr(message),
		Actions:       actions,
	}, gl.WithContext(ctx))
	return err
}

// actions builds one commit action per file, updating files present at ref.
func (c *Client) actions(ctx context.Context, ref string, files []manifest.File) ([]*gl.CommitActionOptions, error) {
	actions := make([]*gl.CommitActionOptions, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			action := gl.FileCreate
			_, _, err := c.gl.RepositoryFiles.GetFileMetaData(c.project, f.Name,
				&gl.GetFileMetaDataOptions{Ref: gl.Ptr(ref)}, gl.WithContext(gctx))
			switch {
			case err == nil:
				action = gl.FileUpdate
			case c.Status(err) != http.StatusNotFound:
				return err
			}

			actions[i] = &gl.CommitActionOptions{
				Action:   gl.Ptr(action),
				FilePath: gl.Ptr(f.Name),
				Content:  gl.Ptr(f.Content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return actions, nil
}

// OpenRequest implements scm.Steps. GitLab carries the body in the merge
// request description.
func (c *Client) OpenRequest(ctx context.Context, head, base, title, body string) (string, error) {
	mr, _, err := c.gl.MergeRequests.CreateMergeRequest(c.project, &gl.CreateMergeRequestOptions{
		Title:        gl.Ptr(title),
		Description:  gl.Ptr(body),
		SourceBranch: gl.Ptr(head),
		TargetBranch: gl.Ptr(base),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return mr.WebURL, nil
}

// DeleteBranch implements scm.Steps.
func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	_, err := c.gl.Branches.DeleteBranch(c.project, branch, gl.WithContext(ctx))
	return err
}

// Status implements scm.Steps. The client reports 404 as gl.ErrNotFound
// rather than an ErrorResponse.
func (c *Client) Status(err error) int {
	if stderrors.Is(err, gl.ErrNotFound) {
		return http.StatusNotFound
	}
	var er *gl.ErrorResponse
	if stderrors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}
