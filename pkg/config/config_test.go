package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Cache.Kind != DefaultCacheKind {
		t.Errorf("cache kind = %q, want %q", cfg.Cache.Kind, DefaultCacheKind)
	}
	if cfg.Fold.Policy != "top" {
		t.Errorf("policy = %q, want top", cfg.Fold.Policy)
	}
	if cfg.Fold.ReduceBudget == 0 {
		t.Error("reduce budget default not applied")
	}
}

func TestLoadFile(t *testing.T) {
	content := `
[server]
addr = ":9090"

[cache]
kind = "redis"
redis_url = "redis://localhost:6379/0"

[fold]
policy = "bot"
hide_intro = true
ignore = ["obs"]
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "redis" || cfg.Cache.RedisURL == "" {
		t.Errorf("redis cache not loaded: %+v", cfg.Cache)
	}
	if cfg.Fold.Policy != "bot" || !cfg.Fold.HideIntro {
		t.Errorf("fold config not loaded: %+v", cfg.Fold)
	}
	if len(cfg.Fold.Ignore) != 1 || cfg.Fold.Ignore[0] != "obs" {
		t.Errorf("ignore = %v, want [obs]", cfg.Fold.Ignore)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "BadCacheKind", content: "[cache]\nkind = \"memcached\"\n"},
		{name: "RedisWithoutURL", content: "[cache]\nkind = \"redis\"\n"},
		{name: "BadPolicy", content: "[fold]\npolicy = \"sideways\"\n"},
		{name: "MalformedTOML", content: "[server\naddr = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORYFOLD_ADDR", ":7070")
	t.Setenv("STORYFOLD_MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q, want env override :7070", cfg.Server.Addr)
	}
	if cfg.Store.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("mongo uri = %q, want env override", cfg.Store.MongoURI)
	}
}
