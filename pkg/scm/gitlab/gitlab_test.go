package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/scm"
)

const mrURL = "https://gitlab.example.com/group/gitops/-/merge_requests/3"

type mockGitLab struct {
	t *testing.T

	mu       sync.Mutex
	calls    []string
	branch   map[string]any
	commit   map[string]any
	mr       map[string]any
	deleted  []string
	existing map[string]bool

	missingBase  bool
	failMR       bool
	failBranch   bool
	metadataRefs []string
}

func newMockGitLab(t *testing.T) (*mockGitLab, *httptest.Server) {
	m := &mockGitLab{t: t, existing: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/projects/42/repository/branches/main", func(w http.ResponseWriter, r *http.Request) {
		m.record("get-branch")
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		if m.missingBase {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "404 Branch Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": "main", "commit": map[string]any{"id": "abc123"}})
	})
	mux.HandleFunc("POST /api/v4/projects/42/repository/branches", func(w http.ResponseWriter, r *http.Request) {
		m.record("create-branch")
		m.branch = m.decode(r)
		if m.failBranch {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Branch already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": m.branch["branch"]})
	})
	mux.HandleFunc("HEAD /api/v4/projects/42/repository/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := r.PathValue("file")
		m.mu.Lock()
		m.calls = append(m.calls, "file-metadata")
		m.metadataRefs = append(m.metadataRefs, r.URL.Query().Get("ref"))
		exists := m.existing[file]
		m.mu.Unlock()

		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		for k, v := range map[string]string{
			"X-Gitlab-Blob-Id":          "blob",
			"X-Gitlab-Commit-Id":        "abc123",
			"X-Gitlab-Content-Sha256":   "sha",
			"X-Gitlab-Encoding":         "base64",
			"X-Gitlab-File-Name":        file,
			"X-Gitlab-File-Path":        file,
			"X-Gitlab-Last-Commit-Id":   "abc123",
			"X-Gitlab-Ref":              "abc123",
			"X-Gitlab-Size":             "10",
			"X-Gitlab-Execute-Filemode": "false",
		} {
			w.Header().Set(k, v)
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/v4/projects/42/repository/commits", func(w http.ResponseWriter, r *http.Request) {
		m.record("create-commit")
		m.commit = m.decode(r)
		writeJSON(w, http.StatusCreated, map[string]any{"id": "commit-new"})
	})
	mux.HandleFunc("POST /api/v4/projects/42/merge_requests", func(w http.ResponseWriter, r *http.Request) {
		m.record("create-mr")
		m.mr = m.decode(r)
		if m.failMR {
			writeJSON(w, http.StatusConflict, map[string]any{"message": []string{"Another open merge request already exists"}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"iid": 3, "web_url": mrURL})
	})
	mux.HandleFunc("DELETE /api/v4/projects/42/repository/branches/{branch}", func(w http.ResponseWriter, r *http.Request) {
		m.record("delete-branch")
		m.mu.Lock()
		m.deleted = append(m.deleted, r.PathValue("branch"))
		m.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	// Some client versions probe the API root for rate limit headers.
	mux.HandleFunc("HEAD /api/v4/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return m, srv
}

func (m *mockGitLab) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockGitLab) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockGitLab) decode(r *http.Request) map[string]any {
	var body map[string]any
	require.NoError(m.t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(srv *httptest.Server) config.GitLabConfig {
	return config.GitLabConfig{
		URL:        srv.URL,
		Token:      "glpat-test",
		ProjectID:  "42",
		BaseBranch: "main",
	}
}

func changeRequest(t *testing.T) *scm.ChangeRequest {
	t.Helper()
	set, err := manifest.Generate(manifest.DeploymentRequest{
		AppName:  "orders-api",
		Image:    "registry.example.com/proj/orders-api:v3",
		Replicas: 2,
		Host:     "orders-api",
	})
	require.NoError(t, err)
	return &scm.ChangeRequest{
		AppName: "orders-api",
		Files:   set,
		Title:   "Deploy: orders-api",
		Body:    "### New Deployment: orders-api",
	}
}

func actionsOf(t *testing.T, commit map[string]any) map[string]string {
	t.Helper()
	list, ok := commit["actions"].([]any)
	require.True(t, ok)

	out := make(map[string]string, len(list))
	for _, a := range list {
		action := a.(map[string]any)
		assert.NotEmpty(t, action["content"])
		out[action["file_path"].(string)] = action["action"].(string)
	}
	return out
}

func TestSubmitChangeRequest(t *testing.T) {
	m, srv := newMockGitLab(t)

	p, err := New(testConfig(srv), srv.Client())
	require.NoError(t, err)

	res, err := p.SubmitChangeRequest(context.Background(), changeRequest(t))
	require.NoError(t, err)

	assert.Equal(t, mrURL, res.URL)
	assert.Regexp(t, `^deploy/orders-api-[0-9a-f]{6}$`, res.Branch)

	assert.Equal(t, 1, m.count("create-branch"))
	assert.Equal(t, 1, m.count("create-commit"))
	assert.Equal(t, 1, m.count("create-mr"))
	assert.Equal(t, 0, m.count("delete-branch"))

	assert.Equal(t, res.Branch, m.branch["branch"])
	assert.Equal(t, "abc123", m.branch["ref"])

	assert.Equal(t, res.Branch, m.commit["branch"])
	assert.Equal(t, "feat: add orders-api manifests", m.commit["commit_message"])
	assert.Equal(t, map[string]string{
		"apps/orders-api/deployments.yaml":   "create",
		"apps/orders-api/services.yaml":      "create",
		"apps/orders-api/ingress.yaml":       "create",
		"apps/orders-api/kustomization.yaml": "create",
	}, actionsOf(t, m.commit))
	for _, ref := range m.metadataRefs {
		assert.Equal(t, "abc123", ref)
	}

	assert.Equal(t, "Deploy: orders-api", m.mr["title"])
	assert.Equal(t, "### New Deployment: orders-api", m.mr["description"])
	assert.NotContains(t, m.mr, "body")
	assert.Equal(t, res.Branch, m.mr["source_branch"])
	assert.Equal(t, "main", m.mr["target_branch"])
}

func TestSubmitChangeRequest_Redeploy(t *testing.T) {
	m, srv := newMockGitLab(t)
	m.existing["apps/orders-api/deployments.yaml"] = true
	m.existing["apps/orders-api/services.yaml"] = true

	p, err := New(testConfig(srv), srv.Client())
	require.NoError(t, err)

	_, err = p.SubmitChangeRequest(context.Background(), changeRequest(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"apps/orders-api/deployments.yaml":   "update",
		"apps/orders-api/services.yaml":      "update",
		"apps/orders-api/ingress.yaml":       "create",
		"apps/orders-api/kustomization.yaml": "create",
	}, actionsOf(t, m.commit))
	assert.Equal(t, 1, m.count("create-commit"))
}

func TestSubmitChangeRequest_BranchNotFound(t *testing.T) {
	m, srv := newMockGitLab(t)
	m.missingBase = true

	p, err := New(testConfig(srv), srv.Client())
	require.NoError(t, err)

	_, err = p.SubmitChangeRequest(context.Background(), changeRequest(t))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBranchNotFound))
	assert.Equal(t, []string{"get-branch"}, m.calls)
}

func TestSubmitChangeRequest_BranchCreationFailed(t *testing.T) {
	m, srv := newMockGitLab(t)
	m.failBranch = true

	p, err := New(testConfig(srv), srv.Client(), scm.WithCleanup(true))
	require.NoError(t, err)

	_, err = p.SubmitChangeRequest(context.Background(), changeRequest(t))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBranchCreationFailed))
	assert.Equal(t, 0, m.count("create-commit"))
	assert.Equal(t, 0, m.count("delete-branch"))
}

func TestSubmitChangeRequest_MergeRequestRejected(t *testing.T) {
	tests := []struct {
		name        string
		cleanup     bool
		wantDeleted int
	}{
		{name: "branch left behind", cleanup: false, wantDeleted: 0},
		{name: "branch deleted", cleanup: true, wantDeleted: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, srv := newMockGitLab(t)
			m.failMR = true

			p, err := New(testConfig(srv), srv.Client(), scm.WithCleanup(tt.cleanup))
			require.NoError(t, err)

			_, err = p.SubmitChangeRequest(context.Background(), changeRequest(t))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeRequestCreationFailed))
			assert.Contains(t, err.Error(), "Another open merge request already exists")
			assert.Equal(t, 1, m.count("create-mr"))
			assert.Equal(t, tt.wantDeleted, m.count("delete-branch"))
			if tt.cleanup {
				require.Len(t, m.deleted, 1)
				assert.Regexp(t, `^deploy/orders-api-[0-9a-f]{6}$`, m.deleted[0])
			}
		})
	}
}

func TestClient_Commit(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     map[string]string
	}{
		{
			name: "new app",
			want: map[string]string{
				"apps/orders-api/deployments.yaml":   "create",
				"apps/orders-api/services.yaml":      "create",
				"apps/orders-api/ingress.yaml":       "create",
				"apps/orders-api/kustomization.yaml": "create",
			},
		},
		{
			name:     "some files present",
			existing: []string{"apps/orders-api/ingress.yaml"},
			want: map[string]string{
				"apps/orders-api/deployments.yaml":   "create",
				"apps/orders-api/services.yaml":      "create",
				"apps/orders-api/ingress.yaml":       "update",
				"apps/orders-api/kustomization.yaml": "create",
			},
		},
		{
			name: "all files present",
			existing: []string{
				"apps/orders-api/deployments.yaml",
				"apps/orders-api/services.yaml",
				"apps/orders-api/ingress.yaml",
				"apps/orders-api/kustomization.yaml",
			},
			want: map[string]string{
				"apps/orders-api/deployments.yaml":   "update",
				"apps/orders-api/services.yaml":      "update",
				"apps/orders-api/ingress.yaml":       "update",
				"apps/orders-api/kustomization.yaml": "update",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, srv := newMockGitLab(t)
			for _, f := range tt.existing {
				m.existing[f] = true
			}

			c, err := NewClient(testConfig(srv), srv.Client())
			require.NoError(t, err)

			cr := changeRequest(t)
			err = c.Commit(context.Background(), "deploy/orders-api-abc123", "abc123",
				cr.CommitMessage(), cr.Files.Paths(cr.AppName))
			require.NoError(t, err)

			assert.Equal(t, 4, m.count("file-metadata"))
			assert.Equal(t, 1, m.count("create-commit"))
			assert.Equal(t, "deploy/orders-api-abc123", m.commit["branch"])
			assert.Equal(t, tt.want, actionsOf(t, m.commit))
		})
	}
}

func TestClient_Status(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: gl.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", gl.ErrNotFound), want: http.StatusNotFound},
		{
			name: "error response",
			err:  &gl.ErrorResponse{Response: &http.Response{StatusCode: http.StatusConflict}},
			want: http.StatusConflict,
		},
		{name: "network", err: fmt.Errorf("dial tcp: connection refused"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Status(tt.err))
		})
	}
}

func TestNewClient_MissingProject(t *testing.T) {
	_, err := NewClient(config.GitLabConfig{URL: "https://gitlab.example.com"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, scm.Registered(), string(config.ProviderGitLab))
}
