package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Video.Strategy != "slideshow" {
		t.Errorf("Strategy = %q", cfg.Video.Strategy)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magpress.toml")
	data := `
[server]
addr = ":9090"
no_auth = true

[storage]
dir = "/var/magpress/exports"

[cache]
backend = "redis"
redis_addr = "localhost:6379"

[render]
scale = 3.0
shift_ratio = 0.1
fetch_timeout = "45s"
allowed_fonts = ["Inter", "Lora"]

[video]
fps = 24
strategy = "flip"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":9090" || !cfg.Server.NoAuth {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.Dir != "/var/magpress/exports" {
		t.Errorf("storage dir = %q", cfg.Storage.Dir)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Render.Scale != 3.0 || cfg.Render.ShiftRatio != 0.1 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Render.FetchTimeout.Duration() != 45*time.Second {
		t.Errorf("fetch_timeout = %v", cfg.Render.FetchTimeout.Duration())
	}
	if len(cfg.Render.AllowedFonts) != 2 {
		t.Errorf("allowed_fonts = %v", cfg.Render.AllowedFonts)
	}
	if cfg.Video.FPS != 24 || cfg.Video.Strategy != "flip" {
		t.Errorf("video = %+v", cfg.Video)
	}

	// Unset sections keep defaults.
	if cfg.Mongo.Database != "magpress" {
		t.Errorf("mongo database = %q", cfg.Mongo.Database)
	}
}

func TestLoadValidation(t *testing.T) {
	writeCfg := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "magpress.toml")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		return path
	}

	if _, err := Load(writeCfg(t, "[cache]\nbackend = \"memcached\"\n")); err == nil {
		t.Error("unknown cache backend should fail")
	}
	if _, err := Load(writeCfg(t, "[cache]\nbackend = \"redis\"\n")); err == nil {
		t.Error("redis backend without addr should fail")
	}
	if _, err := Load(writeCfg(t, "[video]\nstrategy = \"cube\"\n")); err == nil {
		t.Error("unknown video strategy should fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}
