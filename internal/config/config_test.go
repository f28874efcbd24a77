package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Crawler.Workers)
	assert.Equal(t, "memory", cfg.Queue.Type)
	assert.True(t, cfg.Browser.Headless)
	assert.NotEmpty(t, cfg.Browser.UserAgent)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CRAWLER_WORKERS", "8")
	t.Setenv("CRAWLER_RATE_LIMIT_MIN", "500ms")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_USER_AGENT", "custom-agent/1.0")
	t.Setenv("QUEUE_TYPE", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Crawler.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.RateLimitMin)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "custom-agent/1.0", cfg.Browser.UserAgent)
	assert.Equal(t, "redis", cfg.Queue.Type)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Crawler.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg.Crawler.Workers = 1
	cfg.Queue.Type = "kafka"
	assert.Error(t, cfg.Validate())

	cfg.Queue.Type = "memory"
	cfg.Crawler.RateLimitMin = 10 * time.Second
	cfg.Crawler.RateLimitMax = time.Second
	assert.Error(t, cfg.Validate())
}
