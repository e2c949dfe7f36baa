package registry

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

// OCI reads repositories and tags through the OCI distribution API.
// Repositories outside the configured project are ignored.
type OCI struct {
	ref      Reference
	registry *remote.Registry
}

// NewOCI returns an OCI distribution backend for ref.
func NewOCI(ref Reference, plainHTTP bool, client *http.Client) (*OCI, error) {
	host := ref.BaseURL
	if u, err := url.Parse(ref.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	reg, err := remote.NewRegistry(host)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfiguration, "invalid registry host", err,
			map[string]any{"host": host})
	}
	reg.PlainHTTP = plainHTTP

	authClient := &auth.Client{
		Client: client,
		Cache:  auth.NewCache(),
	}
	authClient.SetUserAgent(userAgent)
	if ref.Username != "" {
		authClient.Credential = auth.StaticCredential(host, auth.Credential{
			Username: ref.Username,
			Password: ref.Password,
		})
	}
	reg.Client = authClient

	return &OCI{ref: ref, registry: reg}, nil
}

// Repositories lists catalog entries under the project prefix with the
// prefix removed.
func (o *OCI) Repositories(ctx context.Context) ([]string, error) {
	prefix := o.ref.Project + "/"

	var names []string
	err := o.registry.Repositories(ctx, "", func(repos []string) error {
		for _, r := range repos {
			if strings.HasPrefix(r, prefix) {
				names = append(names, lastSegment(r))
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, "failed to list registry catalog", err)
	}
	return names, nil
}

// Tags lists tags of project/repository, sorted descending.
func (o *OCI) Tags(ctx context.Context, repository string) ([]string, error) {
	name := o.ref.Project + "/" + repository

	repo, err := o.registry.Repository(ctx, name)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeTransport, "invalid repository", err,
			map[string]any{"repository": name})
	}

	var tags []string
	err = repo.Tags(ctx, "", func(page []string) error {
		tags = append(tags, page...)
		return nil
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeTransport, "failed to list tags", err,
			map[string]any{"repository": name})
	}

	sort.Sort(sort.Reverse(sort.StringSlice(tags)))
	return tags, nil
}
