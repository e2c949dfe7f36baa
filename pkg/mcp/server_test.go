package mcp

import (
	"context"
	"encoding/json"
	"testing"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/portal"
	"github.com/NVIDIA/gitops-portal/pkg/scm"
)

type stubRegistry struct{}

func (stubRegistry) ListRepositories(context.Context) []string {
	return []string{"orders-api"}
}

func (stubRegistry) ListTags(context.Context, string) []string {
	return []string{"v2", "v1"}
}

type stubProvider struct {
	last *scm.ChangeRequest
	err  error
}

func (p *stubProvider) SubmitChangeRequest(_ context.Context, cr *scm.ChangeRequest) (*scm.Result, error) {
	p.last = cr
	if p.err != nil {
		return nil, p.err
	}
	return &scm.Result{URL: "https://gitlab.example.com/g/p/-/merge_requests/3", Branch: "deploy/x", BaseBranch: "main"}, nil
}

func newTestServer(p scm.Provider) *Server {
	reg := config.RegistryConfig{URL: "https://harbor.example.com", Project: "proj"}
	return New(portal.New(reg, stubRegistry{}, p), "test")
}

func call(args any) gomcp.CallToolRequest {
	return gomcp.CallToolRequest{Params: gomcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *gomcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case gomcp.TextContent:
		return c.Text
	case *gomcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content %T", c)
		return ""
	}
}

func TestListTools(t *testing.T) {
	s := newTestServer(nil)
	ctx := context.Background()

	res, err := s.handleListRepositories(ctx, call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["orders-api"]`, text(t, res))

	res, err = s.handleListTags(ctx, call(map[string]interface{}{"repository": "orders-api"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["v2","v1"]`, text(t, res))

	res, err = s.handleListTags(ctx, call(map[string]interface{}{"repository": 3}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleListTags(ctx, call(map[string]interface{}{"repository": ""}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRenderManifests(t *testing.T) {
	s := newTestServer(nil)

	res, err := s.handleRenderManifests(context.Background(), call(map[string]interface{}{
		"app_name":   "orders-api",
		"repository": "orders-api",
		"tag":        "v2",
		"replicas":   float64(2),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var got portal.ManifestsResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "harbor.example.com/proj/orders-api:v2", got.Image)
	assert.Len(t, got.Files, 4)
	assert.Contains(t, got.Files["apps/orders-api/deployments.yaml"], "replicas: 2")
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		args any
	}{
		{"not a map", "x"},
		{"missing app name", map[string]interface{}{"image": "nginx"}},
		{"image wrong type", map[string]interface{}{"app_name": "web", "image": 1}},
		{"fractional replicas", map[string]interface{}{"app_name": "web", "image": "nginx", "replicas": 1.5}},
		{"replicas as string", map[string]interface{}{"app_name": "web", "image": "nginx", "replicas": "2"}},
		{"repository wrong type", map[string]interface{}{"app_name": "web", "repository": 7}},
		{"tag wrong type", map[string]interface{}{"app_name": "web", "repository": "orders-api", "tag": true}},
		{"tag without repository", map[string]interface{}{"app_name": "web", "tag": "v2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errResult := parseRequest(call(tt.args))
			require.NotNil(t, errResult)
			assert.True(t, errResult.IsError)
		})
	}
}

func TestParseRequestSelection(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want *manifest.ImageSelection
	}{
		{"direct image", map[string]interface{}{"app_name": "web", "image": "nginx"}, nil},
		{
			"repository only",
			map[string]interface{}{"app_name": "web", "repository": "orders-api"},
			&manifest.ImageSelection{Repository: "orders-api"},
		},
		{
			"repository and tag",
			map[string]interface{}{"app_name": "web", "repository": "orders-api", "tag": "v2"},
			&manifest.ImageSelection{Repository: "orders-api", Tag: "v2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, errResult := parseRequest(call(tt.args))
			require.Nil(t, errResult)
			assert.Equal(t, "web", req.AppName)
			assert.Equal(t, tt.want, req.Selection)
		})
	}
}

func TestCreateChangeRequest(t *testing.T) {
	p := &stubProvider{}
	s := newTestServer(p)

	res, err := s.handleCreateChangeRequest(context.Background(), call(map[string]interface{}{
		"app_name":    "web",
		"image":       "nginx:1.27",
		"title":       "Deploy web",
		"base_branch": "release",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var got portal.SubmitResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "https://gitlab.example.com/g/p/-/merge_requests/3", got.URL)

	require.NotNil(t, p.last)
	assert.Equal(t, "Deploy web", p.last.Title)
	assert.Equal(t, "release", p.last.BaseBranch)
}

func TestCreateChangeRequestProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New(errors.ErrCodeBranchNotFound, "base branch not found")}
	s := newTestServer(p)

	res, err := s.handleCreateChangeRequest(context.Background(), call(map[string]interface{}{
		"app_name": "web",
		"image":    "nginx:1.27",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "BRANCH_NOT_FOUND")
}
