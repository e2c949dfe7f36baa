package portal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/serializer"
	"github.com/NVIDIA/gitops-portal/pkg/server"
)

// Routes of the portal API.
const (
	RouteRepositories = "/v1/repositories"
	RouteTags         = "/v1/tags"
	RouteManifests    = "/v1/manifests"
	RouteChanges      = "/v1/changes"
)

// Handlers returns the portal API keyed by route, ready for
// server.WithHandler.
func (s *Service) Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		RouteRepositories: s.HandleRepositories,
		RouteTags:         s.HandleTags,
		RouteManifests:    s.HandleManifests,
		RouteChanges:      s.HandleChanges,
	}
}

// RepositoriesResponse is the body of GET /v1/repositories.
type RepositoriesResponse struct {
	Repositories []string `json:"repositories" yaml:"repositories"`
}

// TagsResponse is the body of GET /v1/tags.
type TagsResponse struct {
	Repository string   `json:"repository" yaml:"repository"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// ManifestsResponse is the body of POST /v1/manifests. Files are keyed by
// their path in the GitOps repository.
type ManifestsResponse struct {
	AppName string            `json:"appName" yaml:"appName"`
	Image   string            `json:"image" yaml:"image"`
	Files   map[string]string `json:"files" yaml:"files"`
}

// HandleRepositories lists the registry project's repositories.
func (s *Service) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.RegistryHandlerTimeout)
	defer cancel()

	serializer.RespondJSON(w, http.StatusOK, RepositoriesResponse{
		Repositories: s.Repositories(ctx),
	})
}

// HandleTags lists the tags of the repository named by the query.
func (s *Service) HandleTags(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.RegistryHandlerTimeout)
	defer cancel()

	repo := r.URL.Query().Get("repository")
	tags, err := s.Tags(ctx, repo)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to list tags", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, TagsResponse{Repository: repo, Tags: tags})
}

// HandleManifests renders manifests without touching the Git host. It backs
// the preview step before a submission.
func (s *Service) HandleManifests(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	set, dr, err := s.Render(req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to render manifests", nil)
		return
	}

	files := make(map[string]string, set.Len())
	for _, f := range set.Paths(dr.AppName) {
		files[f.Name] = f.Content
	}

	serializer.RespondJSON(w, http.StatusOK, ManifestsResponse{
		AppName: dr.AppName,
		Image:   dr.Image,
		Files:   files,
	})
}

// HandleChanges renders manifests and opens a change request with them.
func (s *Service) HandleChanges(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.SubmitHandlerTimeout)
	defer cancel()

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	slog.Debug("change request submitted",
		"requestID", server.RequestID(r.Context()),
		"app", req.AppName)

	res, err := s.Submit(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to create change request",
			map[string]any{"app": req.AppName})
		return
	}

	serializer.RespondJSON(w, http.StatusCreated, res)
}

// decodeRequest reads a JSON or YAML Request, choosing by Content-Type.
func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	defer r.Body.Close()

	var req Request
	format := serializer.FormatFromContentType(r.Header.Get("Content-Type"))
	if err := serializer.Decode(r.Body, format, &req); err != nil {
		server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Invalid request body", false, map[string]any{"error": err.Error()})
		return req, false
	}
	return req, true
}
