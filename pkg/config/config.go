// Package config loads server configuration from TOML files with
// environment variable overrides for deploy-time secrets.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/storyfold/pkg/pipeline"
)

// Defaults applied when the file omits a field.
const (
	DefaultAddr      = ":8080"
	DefaultCacheKind = "file"
	DefaultCacheDir  = ".storyfold-cache"
	DefaultDatabase  = "storyfold"
)

// Config is the top-level server configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Fold   FoldConfig   `toml:"fold"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Kind is one of "file", "redis", or "none".
	Kind     string `toml:"kind"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// StoreConfig configures the pathway store. An empty URI disables
// persistence.
type StoreConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// FoldConfig carries server-side defaults for fold requests.
type FoldConfig struct {
	Policy       string   `toml:"policy"`
	Rerank       bool     `toml:"rerank"`
	HideIntro    bool     `toml:"hide_intro"`
	Ignore       []string `toml:"ignore"`
	ReduceBudget int      `toml:"reduce_budget"`
}

// Load reads a TOML config file and applies defaults. A missing path
// yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and endpoints from the environment, so
// config files can be committed without credentials.
func (c *Config) applyEnv() {
	if v := os.Getenv("STORYFOLD_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("STORYFOLD_MONGO_URI"); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv("STORYFOLD_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = DefaultCacheKind
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}
	if c.Store.Database == "" {
		c.Store.Database = DefaultDatabase
	}
	if c.Fold.Policy == "" {
		c.Fold.Policy = pipeline.DefaultPolicy
	}
	if c.Fold.ReduceBudget == 0 {
		c.Fold.ReduceBudget = pipeline.DefaultReduceBudget
	}
}

func (c *Config) validate() error {
	switch c.Cache.Kind {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("invalid cache kind %q (must be file, redis, or none)", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache kind is redis but no redis_url configured")
	}
	if err := pipeline.ValidatePolicy(c.Fold.Policy); err != nil {
		return err
	}
	return nil
}
