// Package config loads magpress configuration from TOML files.
//
// Every field has a working default, so a missing config file yields a
// fully local setup: in-memory content store, file cache, local artifact
// storage, no export log.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/magpress/magpress/pkg/errors"
)

// Config is the top-level configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Cache   Cache   `toml:"cache"`
	Mongo   Mongo   `toml:"mongo"`
	Render  Render  `toml:"render"`
	Video   Video   `toml:"video"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`

	// NoAuth serves every request under the local mock identity.
	NoAuth bool `toml:"no_auth"`
}

// Storage configures artifact storage.
type Storage struct {
	// Dir is the local artifact directory.
	Dir string `toml:"dir"`
}

// Cache configures the raster cache.
type Cache struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory (file backend).
	Dir string `toml:"dir"`

	// RedisAddr, RedisPassword, and RedisDB configure the redis backend.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Mongo configures layout, content, and export-log persistence.
type Mongo struct {
	// URI is the connection string. Empty disables Mongo: layouts and
	// content live in memory and export logging is off.
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Render configures page rasterization.
type Render struct {
	Scale        float64  `toml:"scale"`
	ShiftRatio   float64  `toml:"shift_ratio"`
	FetchTimeout duration `toml:"fetch_timeout"`
	AllowedFonts []string `toml:"allowed_fonts"`
}

// Video configures the MP4 encoder.
type Video struct {
	FPS        int    `toml:"fps"`
	FFmpegPath string `toml:"ffmpeg_path"`
	Strategy   string `toml:"strategy"`
}

// duration wraps time.Duration with TOML string parsing ("30s", "2m").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the parsed value.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080"},
		Storage: Storage{Dir: "exports"},
		Cache:   Cache{Backend: "file", Dir: defaultCacheDir()},
		Mongo:   Mongo{Database: "magpress"},
		Render:  Render{},
		Video:   Video{Strategy: "slideshow"},
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults unchanged; a missing file at an explicit path is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"cache backend must be file, redis, or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_addr")
	}
	switch c.Video.Strategy {
	case "", "slideshow", "flip":
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"video strategy must be slideshow or flip, got %q", c.Video.Strategy)
	}
	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "magpress")
	}
	return filepath.Join(os.TempDir(), "magpress-cache")
}
