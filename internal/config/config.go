package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Listen string `koanf:"listen"` // HTTP listen address (default ":8723")

	// Resolver settings for the bandcamp stream extraction service.
	Resolver ResolverConfig `koanf:"resolver"`

	PollIntervalMs int     `koanf:"poll_interval_ms"` // position sampling interval (default: 100)
	DefaultVolume  float64 `koanf:"default_volume"`   // initial volume 0.0-1.0 (default: 1.0)

	// Mount readiness polling for scriptable players.
	MountRetries      int `koanf:"mount_retries"`        // max readiness polls (default: 20)
	MountRetryDelayMs int `koanf:"mount_retry_delay_ms"` // delay between polls (default: 150)
}

// ResolverConfig holds stream-resolver configuration.
type ResolverConfig struct {
	URL          string `koanf:"url"`            // e.g., "http://localhost:5030"
	Quality      string `koanf:"quality"`        // preferred stream quality (default: "mp3-128")
	CacheTTLDays int    `koanf:"cache_ttl_days"` // resolved-track cache TTL in days (default: 7)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	cfg.Resolver.URL = strings.TrimSuffix(cfg.Resolver.URL, "/")

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = ":8723"
	}
	if cfg.Resolver.Quality == "" {
		cfg.Resolver.Quality = "mp3-128"
	}
	if cfg.Resolver.CacheTTLDays <= 0 {
		cfg.Resolver.CacheTTLDays = 7
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = 100
	}
	if cfg.DefaultVolume <= 0 || cfg.DefaultVolume > 1 {
		cfg.DefaultVolume = 1
	}
	if cfg.MountRetries <= 0 {
		cfg.MountRetries = 20
	}
	if cfg.MountRetryDelayMs <= 0 {
		cfg.MountRetryDelayMs = 150
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/mixtape/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mixtape", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// PollInterval returns the position sampling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// MountRetryDelay returns the readiness poll delay as a duration.
func (c *Config) MountRetryDelay() time.Duration {
	return time.Duration(c.MountRetryDelayMs) * time.Millisecond
}

// CacheTTL returns the resolver cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Resolver.CacheTTLDays) * 24 * time.Hour
}

// HasResolver returns true if a stream resolver is configured.
func (c *Config) HasResolver() bool {
	return c.Resolver.URL != ""
}
