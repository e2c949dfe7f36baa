package registry

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
)

// Option configures a CachedClient.
type Option func(*CachedClient)

// WithTTL sets how long listings are cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedClient) {
		c.ttl = ttl
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *CachedClient) {
		c.clock = clk
	}
}

// CachedClient is the best-effort Client over a Backend.
type CachedClient struct {
	backend Backend
	ref     Reference
	ttl     time.Duration
	clock   clock.PassiveClock

	repos *ttlCache[[]string]
	tags  *ttlCache[[]string]
	group singleflight.Group
}

var _ Client = (*CachedClient)(nil)

// NewCachedClient wraps backend. ref only keys the cache.
func NewCachedClient(backend Backend, ref Reference, opts ...Option) *CachedClient {
	c := &CachedClient{
		backend: backend,
		ref:     ref,
		ttl:     defaults.RegistryCacheTTL,
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.repos = newTTLCache[[]string](c.ttl, c.clock)
	c.tags = newTTLCache[[]string](c.ttl, c.clock)
	return c
}

// ListRepositories returns the project's repositories, or an empty slice if
// the registry cannot be queried.
func (c *CachedClient) ListRepositories(ctx context.Context) []string {
	key := c.ref.cacheKey()
	if v, ok := c.repos.get(key); ok {
		registryCacheHits.WithLabelValues(kindRepositories).Inc()
		return orEmpty(slices.Clone(v))
	}
	registryCacheMisses.WithLabelValues(kindRepositories).Inc()

	v, err, _ := c.group.Do(kindRepositories+"|"+key, func() (any, error) {
		repos, err := c.backend.Repositories(ctx)
		if err != nil {
			return nil, err
		}
		repos = orEmpty(repos)
		c.repos.set(key, repos)
		return repos, nil
	})
	if err != nil {
		registryFailures.WithLabelValues(kindRepositories).Inc()
		slog.Warn("registry unreachable, returning no repositories",
			"registry", c.ref.BaseURL,
			"project", c.ref.Project,
			"error", err)
		return []string{}
	}
	return orEmpty(slices.Clone(v.([]string)))
}

// ListTags returns the repository's tags sorted descending, or the fallback
// tag if the registry cannot be queried.
func (c *CachedClient) ListTags(ctx context.Context, repository string) []string {
	key := c.ref.cacheKey() + "|" + repository
	if v, ok := c.tags.get(key); ok {
		registryCacheHits.WithLabelValues(kindTags).Inc()
		return orEmpty(slices.Clone(v))
	}
	registryCacheMisses.WithLabelValues(kindTags).Inc()

	v, err, _ := c.group.Do(kindTags+"|"+key, func() (any, error) {
		tags, err := c.backend.Tags(ctx, repository)
		if err != nil {
			return nil, err
		}
		tags = orEmpty(slices.Clone(tags))
		slices.Sort(tags)
		slices.Reverse(tags)
		c.tags.set(key, tags)
		return tags, nil
	})
	if err != nil {
		registryFailures.WithLabelValues(kindTags).Inc()
		slog.Warn("registry unreachable, returning fallback tag",
			"registry", c.ref.BaseURL,
			"project", c.ref.Project,
			"repository", repository,
			"fallback", defaults.FallbackTag,
			"error", err)
		return []string{defaults.FallbackTag}
	}
	return orEmpty(slices.Clone(v.([]string)))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
