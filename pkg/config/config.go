// Package config loads orthoroute settings from TOML.
//
// One file configures the router geometry, the result cache and the HTTP
// server. Every field has a default, so an empty or missing file is valid:
//
//	[router]
//	margin = 10
//	frame_margin = 50
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
// The CLI reads $XDG_CONFIG_HOME/orthoroute/config.toml unless --config
// names another file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMargin is the clearance between a box and its rails.
	DefaultMargin = 10.0

	// DefaultFrameMargin is how far rails extend past the diagram bounds.
	DefaultFrameMargin = 50.0

	// DefaultBoxWidth is used when a box descriptor omits its size.
	DefaultBoxWidth = 100.0

	// DefaultBoxHeight is used when a box descriptor omits its size.
	DefaultBoxHeight = 100.0

	// DefaultPortInset keeps default port areas away from box corners.
	DefaultPortInset = 10.0

	// DefaultInteriorPenalty multiplies the length of edges running inside a
	// box the path is allowed to cross.
	DefaultInteriorPenalty = 3.0

	// DefaultCacheTTL is the lifetime of cached routes and artifacts.
	DefaultCacheTTL = "24h"

	// DefaultAddr is the HTTP listen address.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes bounds HTTP request bodies.
	DefaultMaxBodyBytes = 4 << 20
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// ValidBackends is the set of supported cache backends.
var ValidBackends = map[string]bool{
	BackendFile:  true,
	BackendRedis: true,
	BackendNone:  true,
}

// appName names the config and cache directories.
const appName = "orthoroute"

// =============================================================================
// Config
// =============================================================================

// Config is the root of the configuration file.
type Config struct {
	Router Router `toml:"router" json:"router"`
	Cache  Cache  `toml:"cache" json:"cache"`
	Server Server `toml:"server" json:"server"`
}

// Router holds the geometry rules of the routing engine. Two graphs built
// with equal Router values route identically, so the struct is part of the
// pipeline cache key.
type Router struct {
	Margin          float64 `toml:"margin" json:"margin"`
	FrameMargin     float64 `toml:"frame_margin" json:"frame_margin"`
	DefaultWidth    float64 `toml:"default_width" json:"default_width"`
	DefaultHeight   float64 `toml:"default_height" json:"default_height"`
	PortInset       float64 `toml:"port_inset" json:"port_inset"`
	InteriorPenalty float64 `toml:"interior_penalty" json:"interior_penalty"`
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend  string `toml:"backend" json:"backend"`
	Dir      string `toml:"dir" json:"dir,omitempty"`
	RedisURL string `toml:"redis_url" json:"redis_url,omitempty"`
	TTL      string `toml:"ttl" json:"ttl"`

	// Prefix scopes every key, so deployments sharing one Redis stay apart.
	Prefix string `toml:"prefix" json:"prefix,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string `toml:"addr" json:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes" json:"max_body_bytes"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// DefaultRouter returns the default router geometry.
func DefaultRouter() Router {
	r := Router{}
	r.SetDefaults()
	return r
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	c.Router.SetDefaults()
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// SetDefaults fills zero fields with their defaults.
func (r *Router) SetDefaults() {
	if r.Margin == 0 {
		r.Margin = DefaultMargin
	}
	if r.FrameMargin == 0 {
		r.FrameMargin = DefaultFrameMargin
	}
	if r.DefaultWidth == 0 {
		r.DefaultWidth = DefaultBoxWidth
	}
	if r.DefaultHeight == 0 {
		r.DefaultHeight = DefaultBoxHeight
	}
	if r.PortInset == 0 {
		r.PortInset = DefaultPortInset
	}
	if r.InteriorPenalty == 0 {
		r.InteriorPenalty = DefaultInteriorPenalty
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := c.Router.Validate(); err != nil {
		return err
	}
	if !ValidBackends[c.Cache.Backend] {
		return errs.New(errs.ErrCodeInvalidConfig, "invalid cache backend: %s (must be 'file', 'redis' or 'none')", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "max_body_bytes must not be negative")
	}
	return nil
}

// Validate checks the router geometry rules.
func (r Router) Validate() error {
	switch {
	case r.Margin <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "router margin must be positive, got %g", r.Margin)
	case r.FrameMargin < r.Margin:
		return errs.New(errs.ErrCodeInvalidConfig, "frame_margin (%g) must be at least margin (%g)", r.FrameMargin, r.Margin)
	case r.DefaultWidth <= 0 || r.DefaultHeight <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "default box size must be positive")
	case r.PortInset < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "port_inset must not be negative")
	case r.InteriorPenalty < 1:
		return errs.New(errs.ErrCodeInvalidConfig, "interior_penalty must be at least 1, got %g", r.InteriorPenalty)
	}
	return nil
}

// TTLDuration parses the cache TTL.
func (c Cache) TTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid cache ttl %q", c.TTL)
	}
	return d, nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a TOML file, applies defaults and validates the result.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	var c Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.SetDefaults()
		return c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Parse decodes TOML from memory, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode config")
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Path returns the default config file location using the XDG standard
// (~/.config/orthoroute/config.toml).
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
