package serializer

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, map[string]string{"url": "https://x/pull/1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"url":"https://x/pull/1"}`, w.Body.String())
}

func TestRespondJSONEncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRespondYAML(t *testing.T) {
	w := httptest.NewRecorder()
	RespondYAML(w, http.StatusOK, map[string]int{"replicas": 2})

	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Equal(t, "replicas: 2\n", w.Body.String())
}

func TestHttpReaderUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.UserAgent())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHttpReader(WithUserAgent("portal-test")).Client

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "explicit")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"portal-test", "explicit"}, got)
}

func TestNewHttpReaderDefaults(t *testing.T) {
	r := NewHttpReader(WithUserAgent(""), WithTotalTimeout(0))
	assert.Equal(t, HttpReaderUserAgent, r.UserAgent)
	assert.Positive(t, r.Client.Timeout)
}
