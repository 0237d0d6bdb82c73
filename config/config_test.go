package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ROOMBOOK_CONFIG_DIR", dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{
		"ROOMBOOK_BASE_URL", "ROOMBOOK_TIMEOUT", "ROOMBOOK_SYNC_TIMEOUT", "ROOMBOOK_REDIS_ADDR",
		"ROOMBOOK_WATCH_INTERVAL", "ROOMBOOK_LOG_LEVEL", "ROOMBOOK_LOG_FORMAT", "ROOMBOOK_PAGE_SIZE",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{
  "base_url": "https://rooms.example.edu/api/",
  "page_size": 12,
  "timeout": "5s",
  "redis_addr": "localhost:6379"
}`)
	t.Setenv("ROOMBOOK_TIMEOUT", "30s")
	t.Setenv("ROOMBOOK_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://rooms.example.edu/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.PageSize != 12 || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("env should override the file, got %v", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", cfg.LogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	writeFile(t, ".env", "ROOMBOOK_WATCH_INTERVAL=15s\n")
	// godotenv never overrides variables that are already set, even empty ones.
	os.Unsetenv("ROOMBOOK_WATCH_INTERVAL")
	t.Cleanup(func() { os.Unsetenv("ROOMBOOK_WATCH_INTERVAL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WatchInterval != 15*time.Second {
		t.Fatalf("expected .env value, got %v", cfg.WatchInterval)
	}
}

func TestLoadCollectsInvalidValues(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"base_url": "rooms.example.edu", "timeout": "soon"}`)
	t.Setenv("ROOMBOOK_PAGE_SIZE", "many")
	t.Setenv("ROOMBOOK_SYNC_TIMEOUT", "-1s")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected an error")
	}
	for _, name := range []string{"config.json:base_url", "config.json:timeout", "ROOMBOOK_PAGE_SIZE", "ROOMBOOK_SYNC_TIMEOUT"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s in %q", name, err.Error())
		}
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{not json`)
	if _, err := Load(); err == nil {
		t.Fatalf("expected a decode error")
	}
}
