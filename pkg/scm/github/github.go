// Package github submits change requests through the GitHub Git data API.
//
// The manifest commit is assembled object by object: one blob per file, one
// tree layered on the base commit's tree, one commit, then the deploy branch
// ref is moved to it. Nothing is visible on the branch until the final ref
// update, so readers never observe a partial file set.
package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/scm"
	"github.com/NVIDIA/gitops-portal/pkg/serializer"
)

const (
	name      = "github"
	userAgent = "gitops-portal-github/1.0"

	fileMode = "100644"
	blobType = "blob"
)

func init() {
	scm.MustRegister(config.ProviderGitHub, func(cfg *config.Config) (scm.Provider, error) {
		return New(cfg.GitHub, nil, scm.WithCleanup(cfg.CleanupOnFailure))
	})
}

// Client implements scm.Steps for one GitHub repository.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

var _ scm.Steps = (*Client)(nil)

// NewClient returns a Client for cfg.Repo. A nil hc uses the shared
// timeout-bounded client.
func NewClient(cfg config.GitHubConfig, hc *http.Client) (*Client, error) {
	owner, repo, ok := strings.Cut(cfg.Repo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, errors.NewWithContext(errors.ErrCodeConfiguration,
			"github.repo must be in owner/name form", map[string]any{"repo": cfg.Repo})
	}

	if hc == nil {
		hc = serializer.NewHttpReader(serializer.WithUserAgent(userAgent)).Client
	}

	client := gh.NewClient(hc).WithAuthToken(cfg.Token)
	client.UserAgent = userAgent

	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeConfiguration,
				"invalid github.api_url", err, map[string]any{"api_url": cfg.APIURL})
		}
		client.BaseURL = base
	}

	return &Client{gh: client, owner: owner, repo: repo}, nil
}

// New returns the GitHub provider targeting cfg.BaseBranch.
func New(cfg config.GitHubConfig, hc *http.Client, opts ...scm.Option) (*scm.Workflow, error) {
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
	ref, _, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
	if err != nil {
		return "", err
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("ref heads/%s has no object", branch)
	}
	return sha, nil
}

// CreateBranch implements scm.Steps.
func (c *Client) CreateBranch(ctx context.Context, branch, sha string) error {
	_, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, &gh.Reference{
		Ref:    gh.Ptr("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.Ptr(sha)},
	})
	return err
}

// Commit implements scm.Steps. Blobs are uploaded concurrently; the branch
// only moves once the commit exists.
func (c *Client) Commit(ctx context.Context, branch, baseSHA, message string, files []manifest.File) error {
	base, _, err := c.gh.Git.GetCommit(ctx, c.owner, c.repo, baseSHA)
	if err != nil {
		return err
	}

	entries := make([]*gh.TreeEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			blob, _, err := c.gh.Git.CreateBlob(gctx, c.owner, c.repo, &gh.Blob{
				Content:  gh.Ptr(f.Content),
				Encoding: gh.Ptr("utf-8"),
			})
			if err != nil {
				return err
			}
			entries[i] = &gh.TreeEntry{
				Path: gh.Ptr(f.Name),
				Mode: gh.Ptr(fileMode),
				Type: gh.Ptr(blobType),
				SHA:  blob.SHA,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tree, _, err := c.gh.Git.CreateTree(ctx, c.owner, c.repo, base.GetTree().GetSHA(), entries)
	if err != nil {
		return err
	}

	commit, _, err := c.gh.Git.CreateCommit(ctx, c.owner, c.repo, &gh.Commit{
		Message: gh.Ptr(message),
		Tree:    &gh.Tree{SHA: tree.SHA},
		Parents: []*gh.Commit{{SHA: gh.Ptr(baseSHA)}},
	}, nil)
	if err != nil {
		return err
	}

	_, _, err = c.gh.Git.UpdateRef(ctx, c.owner, c.repo, &gh.Reference{
		Ref:    gh.Ptr("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: commit.SHA},
	}, false)
	return err
}

// OpenRequest implements scm.Steps.
func (c *Client) OpenRequest(ctx context.Context, head, base, title, body string) (string, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &gh.NewPullRequest{
		Title: gh.Ptr(title),
		Head:  gh.Ptr(head),
		Base:  gh.Ptr(base),
		Body:  gh.Ptr(body),
	})
	if err != nil {
		return "", err
	}
	return pr.GetHTMLURL(), nil
}

// DeleteBranch implements scm.Steps.
func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	_, err := c.gh.Git.DeleteRef(ctx, c.owner, c.repo, "heads/"+branch)
	return err
}

// Status implements scm.Steps.
func (c *Client) Status(err error) int {
	var er *gh.ErrorResponse
	if stderrors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	var rl *gh.RateLimitError
	if stderrors.As(err, &rl) && rl.Response != nil {
		return rl.Response.StatusCode
	}
	var al *gh.AbuseRateLimitError
	if stderrors.As(err, &al) && al.Response != nil {
		return al.Response.StatusCode
	}
	return 0
}
