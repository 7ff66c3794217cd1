package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/orthoroute/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir(config.Cache{})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", dir, appName)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir(config.Cache{})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCacheDirConfigured(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/ignored")

	dir, err := cacheDir(config.Cache{Dir: "/srv/routes"})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/routes" {
		t.Errorf("cacheDir() = %q, want configured dir", dir)
	}
}

func TestCacheLabel(t *testing.T) {
	file := config.Default()
	file.Cache.Dir = "/srv/routes"
	redis := config.Default()
	redis.Cache.Backend = config.BackendRedis
	none := config.Default()
	none.Cache.Backend = config.BackendNone

	tests := []struct {
		name    string
		cfg     config.Config
		noCache bool
		want    string
	}{
		{"file", file, false, "file /srv/routes"},
		{"redis", redis, false, "redis"},
		{"none", none, false, "disabled"},
		{"no-cache flag", file, true, "disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheLabel(tt.cfg, tt.noCache); got != tt.want {
				t.Errorf("cacheLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
