package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 1 << 12

// Harbor reads repositories and tags from the Harbor v2.0 API.
type Harbor struct {
	ref    Reference
	client *http.Client
}

type harborRepository struct {
	Name string `json:"name"`
}

type harborArtifact struct {
	Digest string      `json:"digest"`
	Tags   []harborTag `json:"tags"`
}

type harborTag struct {
	Name string `json:"name"`
}

// NewHarbor returns a Harbor backend for ref.
func NewHarbor(ref Reference, client *http.Client) *Harbor {
	return &Harbor{ref: ref, client: client}
}

// Repositories lists repository names in the project with the project
// prefix removed.
func (h *Harbor) Repositories(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v2.0/projects/%s/repositories",
		h.ref.BaseURL, url.PathEscape(h.ref.Project))

	var repos []harborRepository
	if err := h.get(ctx, endpoint, defaults.RegistryRepositoryPageSize, &repos); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, lastSegment(r.Name))
	}
	return names, nil
}

// Tags lists tag names across all artifacts of repository, sorted descending.
func (h *Harbor) Tags(ctx context.Context, repository string) ([]string, error) {
	// Harbor expects slashes in repository names to be double encoded.
	escaped := url.PathEscape(url.PathEscape(repository))
	endpoint := fmt.Sprintf("%s/api/v2.0/projects/%s/repositories/%s/artifacts",
		h.ref.BaseURL, url.PathEscape(h.ref.Project), escaped)

	var artifacts []harborArtifact
	if err := h.get(ctx, endpoint, defaults.RegistryArtifactPageSize, &artifacts); err != nil {
		return nil, err
	}

	var tags []string
	for _, a := range artifacts {
		for _, t := range a.Tags {
			tags = append(tags, t.Name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(tags)))
	return tags, nil
}

func (h *Harbor) get(ctx context.Context, endpoint string, pageSize int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransport, "failed to build registry request", err)
	}

	q := req.URL.Query()
	q.Set("page_size", strconv.Itoa(pageSize))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if h.ref.Username != "" {
		req.SetBasicAuth(h.ref.Username, h.ref.Password)
	}

	slog.Debug("registry request", "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeTransport, "registry request failed", err,
			map[string]any{"url": endpoint})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.NewWithContext(errors.ErrCodeTransport,
			fmt.Sprintf("registry returned %s", resp.Status),
			map[string]any{"url": endpoint, "status": resp.StatusCode, "body": string(body)})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithContext(errors.ErrCodeTransport, "failed to decode registry response", err,
			map[string]any{"url": endpoint})
	}
	return nil
}
