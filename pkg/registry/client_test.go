package registry

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/defaults"
)

type fakeBackend struct {
	repos     []string
	tags      map[string][]string
	err       error
	repoCalls atomic.Int32
	tagCalls  atomic.Int32
}

func (f *fakeBackend) Repositories(context.Context) ([]string, error) {
	f.repoCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.repos, nil
}

func (f *fakeBackend) Tags(_ context.Context, repository string) ([]string, error) {
	f.tagCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[repository], nil
}

var testRef = Reference{BaseURL: "https://harbor.example.com", Project: "proj", Username: "u", Password: "p"}

func TestCachedClient_Degradation(t *testing.T) {
	b := &fakeBackend{err: stderrors.New("connection refused")}
	c := NewCachedClient(b, testRef)

	assert.Equal(t, []string{}, c.ListRepositories(context.Background()))
	assert.Equal(t, []string{defaults.FallbackTag}, c.ListTags(context.Background(), "orders-api"))
	assert.Equal(t, []string{"latest"}, c.ListTags(context.Background(), "orders-api"))
}

func TestCachedClient_FailuresNotCached(t *testing.T) {
	b := &fakeBackend{err: stderrors.New("boom")}
	c := NewCachedClient(b, testRef)

	c.ListRepositories(context.Background())
	c.ListRepositories(context.Background())
	assert.Equal(t, int32(2), b.repoCalls.Load())

	b.err = nil
	b.repos = []string{"orders-api"}
	assert.Equal(t, []string{"orders-api"}, c.ListRepositories(context.Background()))
}

func TestCachedClient_Expiry(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	b := &fakeBackend{
		repos: []string{"orders-api"},
		tags:  map[string][]string{"orders-api": {"v1", "v3", "v2"}},
	}
	c := NewCachedClient(b, testRef, WithClock(clk), WithTTL(5*time.Minute))
	ctx := context.Background()

	assert.Equal(t, []string{"orders-api"}, c.ListRepositories(ctx))
	assert.Equal(t, []string{"v3", "v2", "v1"}, c.ListTags(ctx, "orders-api"))

	clk.Step(4 * time.Minute)
	c.ListRepositories(ctx)
	c.ListTags(ctx, "orders-api")
	assert.Equal(t, int32(1), b.repoCalls.Load())
	assert.Equal(t, int32(1), b.tagCalls.Load())

	// Staleness inside the window is tolerated.
	b.repos = []string{"orders-api", "web"}
	assert.Equal(t, []string{"orders-api"}, c.ListRepositories(ctx))

	clk.Step(time.Minute)
	assert.Equal(t, []string{"orders-api", "web"}, c.ListRepositories(ctx))
	c.ListTags(ctx, "orders-api")
	assert.Equal(t, int32(2), b.repoCalls.Load())
	assert.Equal(t, int32(2), b.tagCalls.Load())
}

func TestCachedClient_KeyedByRepository(t *testing.T) {
	b := &fakeBackend{tags: map[string][]string{"a": {"1"}, "b": {"2"}}}
	c := NewCachedClient(b, testRef)

	assert.Equal(t, []string{"1"}, c.ListTags(context.Background(), "a"))
	assert.Equal(t, []string{"2"}, c.ListTags(context.Background(), "b"))
	assert.Equal(t, int32(2), b.tagCalls.Load())
}

func TestReference_CacheKey(t *testing.T) {
	base := Reference{
		BaseURL:  "https://harbor.example.com",
		Project:  "proj",
		Username: "robot$portal",
		Password: "s3cr3t-password",
	}

	tests := []struct {
		name   string
		mutate func(*Reference)
	}{
		{name: "password rotated", mutate: func(r *Reference) { r.Password = "rotated-password" }},
		{name: "other user", mutate: func(r *Reference) { r.Username = "robot$ci" }},
		{name: "other project", mutate: func(r *Reference) { r.Project = "payments" }},
		{name: "other registry", mutate: func(r *Reference) { r.BaseURL = "https://registry.example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			assert.NotEqual(t, base.cacheKey(), other.cacheKey())
		})
	}

	t.Run("stable", func(t *testing.T) {
		same := base
		assert.Equal(t, base.cacheKey(), same.cacheKey())
	})

	t.Run("credentials hashed", func(t *testing.T) {
		key := base.cacheKey()
		assert.NotContains(t, key, base.Password)
		assert.NotContains(t, key, base.Username)
		assert.True(t, strings.HasPrefix(key, "https://harbor.example.com|proj|"))
	})
}

func TestCachedClient_ReturnsCopies(t *testing.T) {
	b := &fakeBackend{repos: []string{"orders-api"}}
	c := NewCachedClient(b, testRef)

	first := c.ListRepositories(context.Background())
	first[0] = "mutated"

	assert.Equal(t, []string{"orders-api"}, c.ListRepositories(context.Background()))
}

func TestCachedClient_EmptySuccess(t *testing.T) {
	b := &fakeBackend{tags: map[string][]string{}}
	c := NewCachedClient(b, testRef)

	assert.Equal(t, []string{}, c.ListRepositories(context.Background()))
	assert.Equal(t, []string{}, c.ListTags(context.Background(), "orders-api"))
}

func TestCachedClient_Concurrent(t *testing.T) {
	b := &fakeBackend{repos: []string{"orders-api"}, tags: map[string][]string{"orders-api": {"v1"}}}
	c := NewCachedClient(b, testRef)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"orders-api"}, c.ListRepositories(context.Background()))
			assert.Equal(t, []string{"v1"}, c.ListTags(context.Background(), "orders-api"))
		}()
	}
	wg.Wait()
}

func TestTTLCache_Prunes(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	c := newTTLCache[int](time.Second, clk)

	c.set("a", 1)
	c.set("b", 2)
	assert.Equal(t, 2, c.len())

	clk.Step(2 * time.Second)
	c.set("c", 3)
	assert.Equal(t, 1, c.len())

	_, ok := c.get("a")
	assert.False(t, ok)
	v, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RegistryConfig
		wantErr bool
	}{
		{name: "harbor", cfg: config.RegistryConfig{Type: config.RegistryHarbor, URL: "https://harbor.example.com", Project: "proj"}},
		{name: "default type", cfg: config.RegistryConfig{URL: "https://harbor.example.com", Project: "proj"}},
		{name: "oci", cfg: config.RegistryConfig{Type: config.RegistryOCI, URL: "https://ghcr.io", Project: "proj"}},
		{name: "unknown", cfg: config.RegistryConfig{Type: "quay", URL: "https://quay.io", Project: "proj"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "api", lastSegment("proj/team/api"))
	assert.Equal(t, "api", lastSegment("api"))
}
