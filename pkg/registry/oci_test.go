package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

func newDistributionServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/_catalog", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"repositories": []string{"other/api", "proj/orders-api", "proj/web"},
		})
	})
	mux.HandleFunc("/v2/proj/orders-api/tags/list", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "proj/orders-api",
			"tags": []string{"v1", "v10", "v2"},
		})
	})
	return httptest.NewServer(mux)
}

func TestOCI_Repositories(t *testing.T) {
	srv := newDistributionServer(t)
	defer srv.Close()

	o, err := NewOCI(Reference{BaseURL: srv.URL, Project: "proj"}, true, srv.Client())
	require.NoError(t, err)

	repos, err := o.Repositories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders-api", "web"}, repos)
}

func TestOCI_Tags(t *testing.T) {
	srv := newDistributionServer(t)
	defer srv.Close()

	o, err := NewOCI(Reference{BaseURL: srv.URL, Project: "proj"}, true, srv.Client())
	require.NoError(t, err)

	tags, err := o.Tags(context.Background(), "orders-api")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v10", "v1"}, tags)
}

func TestOCI_TagsUnknownRepository(t *testing.T) {
	srv := newDistributionServer(t)
	defer srv.Close()

	o, err := NewOCI(Reference{BaseURL: srv.URL, Project: "proj"}, true, srv.Client())
	require.NoError(t, err)

	_, err = o.Tags(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTransport))
}
