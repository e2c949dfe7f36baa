// Package mcp exposes the portal pipeline as Model Context Protocol tools so
// an assistant can browse the registry, preview manifests and propose a
// deployment. The server speaks MCP over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/portal"
)

// Tool names.
const (
	ToolListRepositories    = "list_repositories"
	ToolListTags            = "list_tags"
	ToolRenderManifests     = "render_manifests"
	ToolCreateChangeRequest = "create_change_request"
)

const serverName = "gitops-portal"

// Server holds the MCP server and the portal service its tools call.
type Server struct {
	svc *portal.Service
	mcp *mcpserver.MCPServer
}

// New registers the portal tools on a fresh MCP server.
func New(svc *portal.Service, version string) *Server {
	s := &Server{
		svc: svc,
		mcp: mcpserver.NewMCPServer(serverName, version, mcpserver.WithLogging()),
	}

	s.mcp.AddTool(gomcp.NewTool(ToolListRepositories,
		gomcp.WithDescription("List the container repositories of the configured registry project"),
	), s.handleListRepositories)

	s.mcp.AddTool(gomcp.NewTool(ToolListTags,
		gomcp.WithDescription("List the tags of a repository, newest first"),
		gomcp.WithString("repository", gomcp.Required(), gomcp.Description("Repository name")),
	), s.handleListTags)

	s.mcp.AddTool(gomcp.NewTool(ToolRenderManifests,
		append(deploymentParams(),
			gomcp.WithDescription("Render the Kubernetes manifests for a deployment without committing them"),
		)...,
	), s.handleRenderManifests)

	s.mcp.AddTool(gomcp.NewTool(ToolCreateChangeRequest,
		append(deploymentParams(),
			gomcp.WithDescription("Commit the manifests for a deployment on a new branch and open a pull or merge request"),
			gomcp.WithString("title", gomcp.Description("Change request title, defaults to 'Deploy: {app_name}'")),
			gomcp.WithString("body", gomcp.Description("Change request description")),
			gomcp.WithString("base_branch", gomcp.Description("Target branch, defaults to the configured base branch")),
		)...,
	), s.handleCreateChangeRequest)

	return s
}

func deploymentParams() []gomcp.ToolOption {
	return []gomcp.ToolOption{
		gomcp.WithString("app_name", gomcp.Required(), gomcp.Description("Application name, a DNS-1123 label")),
		gomcp.WithString("image", gomcp.Description("Full image reference; use repository and tag instead to pick from the registry")),
		gomcp.WithString("repository", gomcp.Description("Registry repository to deploy")),
		gomcp.WithString("tag", gomcp.Description("Tag of the repository, defaults to latest")),
		gomcp.WithNumber("replicas", gomcp.Description(
			fmt.Sprintf("Replica count between %d and %d, defaults to %d",
				defaults.MinReplicas, defaults.MaxReplicas, defaults.MinReplicas))),
		gomcp.WithString("host", gomcp.Description("Ingress host, defaults to the app name")),
	}
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	slog.Info("serving MCP over stdio", "tools", []string{
		ToolListRepositories, ToolListTags, ToolRenderManifests, ToolCreateChangeRequest,
	})
	return mcpserver.ServeStdio(s.mcp)
}

func (s *Server) handleListRepositories(ctx context.Context, _ gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	return jsonResult(s.svc.Repositories(ctx))
}

func (s *Server) handleListTags(ctx context.Context, request gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return gomcp.NewToolResultError("arguments must be a map"), nil
	}

	repo, ok := args["repository"].(string)
	if !ok {
		return gomcp.NewToolResultError("repository must be a string"), nil
	}

	tags, err := s.svc.Tags(ctx, repo)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) handleRenderManifests(_ context.Context, request gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	req, errResult := parseRequest(request)
	if errResult != nil {
		return errResult, nil
	}

	set, dr, err := s.svc.Render(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	files := make(map[string]string, set.Len())
	for _, f := range set.Paths(dr.AppName) {
		files[f.Name] = f.Content
	}
	return jsonResult(portal.ManifestsResponse{AppName: dr.AppName, Image: dr.Image, Files: files})
}

func (s *Server) handleCreateChangeRequest(ctx context.Context, request gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	req, errResult := parseRequest(request)
	if errResult != nil {
		return errResult, nil
	}

	res, err := s.svc.Submit(ctx, req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

// parseRequest maps tool arguments onto a portal request. A tool-level error
// result is returned for arguments of the wrong type.
func parseRequest(request gomcp.CallToolRequest) (portal.Request, *gomcp.CallToolResult) {
	var req portal.Request

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return req, gomcp.NewToolResultError("arguments must be a map")
	}

	appName, ok := args["app_name"].(string)
	if !ok {
		return req, gomcp.NewToolResultError("app_name must be a string")
	}
	req.AppName = appName

	var repo, tag string
	strs := map[string]*string{
		"image":       &req.Image,
		"repository":  &repo,
		"tag":         &tag,
		"host":        &req.Host,
		"title":       &req.Title,
		"body":        &req.Body,
		"base_branch": &req.BaseBranch,
	}
	for key, dst := range strs {
		v, present := args[key]
		if !present {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return req, gomcp.NewToolResultError(key + " must be a string")
		}
		*dst = str
	}

	if v, present := args["replicas"]; present {
		n, ok := v.(float64)
		if !ok || n != float64(int32(n)) {
			return req, gomcp.NewToolResultError("replicas must be a whole number")
		}
		req.Replicas = int32(n)
	}

	switch {
	case repo != "":
		req.Selection = &manifest.ImageSelection{Repository: repo, Tag: tag}
	case tag != "":
		return req, gomcp.NewToolResultError("tag requires repository")
	}

	return req, nil
}

func jsonResult(v any) (*gomcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return gomcp.NewToolResultText(string(out)), nil
}
