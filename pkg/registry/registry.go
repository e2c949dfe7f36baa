package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/serializer"
)

const userAgent = "gitops-portal-registry/1.0"

// Reference identifies a registry project and the credentials used to read it.
type Reference struct {
	BaseURL  string
	Project  string
	Username string
	Password string
}

// NewReference builds a Reference from registry configuration.
func NewReference(cfg config.RegistryConfig) Reference {
	return Reference{
		BaseURL:  strings.TrimSuffix(cfg.URL, "/"),
		Project:  cfg.Project,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}

// cacheKey identifies the reference in the cache. Credentials only
// contribute a digest.
func (r Reference) cacheKey() string {
	sum := sha256.Sum256([]byte(r.Username + ":" + r.Password))
	return fmt.Sprintf("%s|%s|%s", r.BaseURL, r.Project, hex.EncodeToString(sum[:8]))
}

// Client lists repositories and tags without ever failing.
type Client interface {
	// ListRepositories returns repository names in the project, or an empty
	// slice when they cannot be determined.
	ListRepositories(ctx context.Context) []string
	// ListTags returns tag names sorted descending, or the fallback tag when
	// they cannot be determined.
	ListTags(ctx context.Context, repository string) []string
}

// Backend is a registry API implementation. Errors are TRANSPORT_ERROR.
type Backend interface {
	Repositories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context, repository string) ([]string, error)
}

// NewBackend returns the backend selected by cfg.Type.
func NewBackend(cfg config.RegistryConfig, hc *http.Client) (Backend, error) {
	if hc == nil {
		hc = serializer.NewHttpReader(serializer.WithUserAgent(userAgent)).Client
	}
	ref := NewReference(cfg)

	switch cfg.Type {
	case config.RegistryHarbor, "":
		return NewHarbor(ref, hc), nil
	case config.RegistryOCI:
		return NewOCI(ref, cfg.PlainHTTP, hc)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeConfiguration,
			fmt.Sprintf("unsupported registry type %q", cfg.Type),
			map[string]any{"supported": config.SupportedRegistries()})
	}
}

// New builds the caching, best-effort client for cfg.
func New(cfg config.RegistryConfig, opts ...Option) (*CachedClient, error) {
	backend, err := NewBackend(cfg, nil)
	if err != nil {
		return nil, err
	}
	return NewCachedClient(backend, NewReference(cfg), opts...), nil
}

// lastSegment strips any namespace from a repository path.
func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
