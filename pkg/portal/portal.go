package portal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/registry"
	"github.com/NVIDIA/gitops-portal/pkg/scm"

	// Git host implementations register themselves with pkg/scm.
	_ "github.com/NVIDIA/gitops-portal/pkg/scm/github"
	_ "github.com/NVIDIA/gitops-portal/pkg/scm/gitlab"
)

// Request is the input of Render and Submit. The image is either given
// directly or composed from a registry selection.
type Request struct {
	manifest.DeploymentRequest `yaml:",inline"`

	Selection  *manifest.ImageSelection `json:"selection,omitempty" yaml:"selection,omitempty"`
	Title      string                   `json:"title,omitempty" yaml:"title,omitempty"`
	Body       string                   `json:"body,omitempty" yaml:"body,omitempty"`
	BaseBranch string                   `json:"baseBranch,omitempty" yaml:"baseBranch,omitempty"`
}

// SubmitResult is returned after a change request was opened.
type SubmitResult struct {
	URL        string   `json:"url" yaml:"url"`
	Branch     string   `json:"branch" yaml:"branch"`
	BaseBranch string   `json:"baseBranch" yaml:"baseBranch"`
	Files      []string `json:"files" yaml:"files"`
}

// Service composes the registry client, the manifest generator and a Git
// provider. It holds no per-request state.
type Service struct {
	registry    registry.Client
	provider    scm.Provider
	registryURL string
	project     string
}

// New returns a Service. provider may be nil for render-only use; Submit
// then fails with CONFIGURATION_ERROR.
func New(reg config.RegistryConfig, client registry.Client, provider scm.Provider) *Service {
	return &Service{
		registry:    client,
		provider:    provider,
		registryURL: reg.URL,
		project:     reg.Project,
	}
}

// FromConfig builds the registry client and the configured provider.
func FromConfig(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "configuration is required")
	}

	client, err := registry.New(cfg.Registry)
	if err != nil {
		return nil, err
	}

	provider, err := scm.New(cfg)
	if err != nil {
		return nil, err
	}

	return New(cfg.Registry, client, provider), nil
}

// Repositories lists the repositories of the configured project.
func (s *Service) Repositories(ctx context.Context) []string {
	return s.registry.ListRepositories(ctx)
}

// Tags lists the tags of repository, newest first.
func (s *Service) Tags(ctx context.Context, repository string) ([]string, error) {
	if repository == "" {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"repository is required", map[string]any{"field": "repository"})
	}
	return s.registry.ListTags(ctx, repository), nil
}

// Image returns the full reference for a registry selection.
func (s *Service) Image(sel manifest.ImageSelection) (string, error) {
	if sel.Repository == "" {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"repository is required", map[string]any{"field": "selection.repository"})
	}
	return manifest.ImageReference(s.registryURL, s.project, sel)
}

// Resolve fills the image from the selection and applies defaults.
func (s *Service) Resolve(req Request) (manifest.DeploymentRequest, error) {
	dr := req.DeploymentRequest
	if req.Selection != nil {
		if dr.Image != "" {
			return dr, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"set either image or selection, not both", map[string]any{"field": "image"})
		}
		image, err := s.Image(*req.Selection)
		if err != nil {
			return dr, err
		}
		dr.Image = image
	}
	return dr.WithDefaults(), nil
}

// Render resolves req and generates its manifests.
func (s *Service) Render(req Request) (*manifest.ManifestSet, manifest.DeploymentRequest, error) {
	dr, err := s.Resolve(req)
	if err != nil {
		return nil, dr, err
	}
	set, err := manifest.Generate(dr)
	if err != nil {
		return nil, dr, err
	}
	return set, dr, nil
}

// Submit renders req and opens a change request with it. Title and body
// default to DefaultTitle and DefaultBody.
func (s *Service) Submit(ctx context.Context, req Request) (*SubmitResult, error) {
	if s.provider == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "no git provider configured")
	}

	set, dr, err := s.Render(req)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = DefaultTitle(dr)
	}
	body := req.Body
	if body == "" {
		body = DefaultBody(dr)
	}

	start := time.Now()
	res, err := s.provider.SubmitChangeRequest(ctx, &scm.ChangeRequest{
		AppName:    dr.AppName,
		BaseBranch: req.BaseBranch,
		Files:      set,
		Title:      title,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, set.Len())
	for _, f := range set.Paths(dr.AppName) {
		paths = append(paths, f.Name)
	}

	slog.Info("deployment proposed",
		"app", dr.AppName,
		"image", dr.Image,
		"url", res.URL,
		"branch", res.Branch,
		"duration", time.Since(start).String())

	return &SubmitResult{
		URL:        res.URL,
		Branch:     res.Branch,
		BaseBranch: res.BaseBranch,
		Files:      paths,
	}, nil
}

// DefaultTitle is the change request title used when none is given.
func DefaultTitle(req manifest.DeploymentRequest) string {
	return "Deploy: " + req.AppName
}

// DefaultBody is the change request description used when none is given.
func DefaultBody(req manifest.DeploymentRequest) string {
	return fmt.Sprintf("### New Deployment: %s\n\n"+
		"- **Image:** `%s`\n"+
		"- **Replicas:** `%d`\n"+
		"- **Host:** `%s`\n\n"+
		"Generated automatically by the GitOps Portal.",
		req.AppName, req.Image, req.Replicas, req.Host)
}
