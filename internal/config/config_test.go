package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, ":8723", cfg.Listen)
	assert.Equal(t, "mp3-128", cfg.Resolver.Quality)
	assert.Equal(t, 7, cfg.Resolver.CacheTTLDays)
	assert.Equal(t, 100, cfg.PollIntervalMs)
	assert.Equal(t, 1.0, cfg.DefaultVolume)
	assert.Equal(t, 20, cfg.MountRetries)
	assert.Equal(t, 150, cfg.MountRetryDelayMs)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Listen:         ":9000",
		PollIntervalMs: 250,
		DefaultVolume:  0.5,
	}
	cfg.Resolver.Quality = "mp3-v0"
	applyDefaults(cfg)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 250, cfg.PollIntervalMs)
	assert.Equal(t, 0.5, cfg.DefaultVolume)
	assert.Equal(t, "mp3-v0", cfg.Resolver.Quality)
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{PollIntervalMs: 100, MountRetryDelayMs: 150}
	cfg.Resolver.CacheTTLDays = 7

	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 150*time.Millisecond, cfg.MountRetryDelay())
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL())
}

func TestHasResolver(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasResolver())

	cfg.Resolver.URL = "http://localhost:5030"
	assert.True(t, cfg.HasResolver())
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()
	if len(paths) == 0 {
		t.Fatal("getConfigPaths() returned empty slice")
	}
	assert.Equal(t, "config.toml", paths[len(paths)-1])
}
