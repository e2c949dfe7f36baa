package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
)

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := parseConfig()

		assert.Empty(t, cfg.Address)
		assert.Equal(t, 8080, cfg.Port)
		assert.EqualValues(t, 20, cfg.RateLimit)
		assert.Equal(t, 40, cfg.RateLimitBurst)
		assert.Equal(t, defaults.ServerReadTimeout, cfg.ReadTimeout)
		assert.Equal(t, defaults.ServerReadHeaderTimeout, cfg.ReadHeaderTimeout)
		assert.Equal(t, defaults.ServerWriteTimeout, cfg.WriteTimeout)
		assert.Equal(t, defaults.ServerIdleTimeout, cfg.IdleTimeout)
		assert.Equal(t, defaults.ServerShutdownTimeout, cfg.ShutdownTimeout)
	})

	t.Run("port from environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		assert.Equal(t, 9090, parseConfig().Port)
	})

	t.Run("invalid port ignored", func(t *testing.T) {
		t.Setenv("PORT", "invalid")
		assert.Equal(t, 8080, parseConfig().Port)
	})

	t.Run("shutdown timeout from environment", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "45")
		assert.Equal(t, 45*time.Second, parseConfig().ShutdownTimeout)
	})

	t.Run("non-positive shutdown timeout ignored", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "0")
		assert.Equal(t, defaults.ServerShutdownTimeout, parseConfig().ShutdownTimeout)
	})
}
