package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Catalog.BaseURL != "https://books.toscrape.com/index.html" {
		t.Fatalf("unexpected base url %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.MaxItems != 100 || cfg.Catalog.MinItems != 50 {
		t.Fatalf("unexpected item bounds: %+v", cfg.Catalog)
	}
	if cfg.Catalog.MaxPrice != 20.0 {
		t.Fatalf("expected max price 20.0, got %v", cfg.Catalog.MaxPrice)
	}
	if got := cfg.PolitenessDelay(); got != time.Second {
		t.Fatalf("expected 1s politeness delay, got %v", got)
	}
	if got := cfg.FetchTimeout(); got != 10*time.Second {
		t.Fatalf("expected 10s fetch timeout, got %v", got)
	}
	if got := cfg.HeadlineWait(); got != 10*time.Second {
		t.Fatalf("expected 10s headline wait, got %v", got)
	}
	if got := cfg.SessionOpenTimeout(); got != 15*time.Second {
		t.Fatalf("expected 15s session open timeout, got %v", got)
	}
	if cfg.Headlines.Concurrency != 3 || cfg.Headlines.DefaultPages != 5 {
		t.Fatalf("unexpected headline defaults: %+v", cfg.Headlines)
	}
	if !strings.HasPrefix(cfg.HTTP.UserAgent, "Mozilla/5.0") {
		t.Fatalf("unexpected user agent %q", cfg.HTTP.UserAgent)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
logging:
  development: false
  level: warn
http:
  timeout_seconds: 5
  user_agent: catalog-bot/1.0
  rate_per_second: 2.5
catalog:
  base_url: http://localhost:8000/index.html
  min_items: 2
  max_items: 4
  max_price: 35.5
  delay_ms: 0
  concurrency: 2
headlines:
  base_url: http://localhost:8000/news
  concurrency: 4
  default_pages: 2
  wait_seconds: 3
headless:
  enabled: false
  endpoint: ws://chrome:9222
  nav_timeout_seconds: 15
redis:
  addr: localhost:6380
  db: 2
db:
  dsn: postgres://u:p@localhost:5432/crawl
  table: runs
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("expected logging overrides, got %+v", cfg.Logging)
	}
	if cfg.HTTP.UserAgent != "catalog-bot/1.0" || cfg.HTTP.RatePerSecond != 2.5 {
		t.Fatalf("expected http overrides, got %+v", cfg.HTTP)
	}
	if cfg.Catalog.MaxItems != 4 || cfg.Catalog.MaxPrice != 35.5 || cfg.PolitenessDelay() != 0 {
		t.Fatalf("expected catalog overrides, got %+v", cfg.Catalog)
	}
	if cfg.Headlines.DefaultPages != 2 || cfg.HeadlineWait() != 3*time.Second {
		t.Fatalf("expected headline overrides, got %+v", cfg.Headlines)
	}
	if cfg.Headless.Enabled || cfg.Headless.Endpoint != "ws://chrome:9222" {
		t.Fatalf("expected headless overrides, got %+v", cfg.Headless)
	}
	if cfg.Redis.Addr != "localhost:6380" || cfg.Redis.DB != 2 {
		t.Fatalf("expected redis overrides, got %+v", cfg.Redis)
	}
	if cfg.DB.Table != "runs" || cfg.DB.DSN == "" {
		t.Fatalf("expected db overrides, got %+v", cfg.DB)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CRAWLER_CATALOG_MAX_ITEMS", "7")
	t.Setenv("CRAWLER_REDIS_ADDR", "cache:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Catalog.MaxItems != 7 {
		t.Fatalf("expected env max items 7, got %d", cfg.Catalog.MaxItems)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
}

func TestMemoryBackendSkipsRedisAddr(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != StorageRedis {
		t.Fatalf("expected redis default backend, got %q", cfg.Storage.Backend)
	}
	cfg.Storage.Backend = StorageMemory
	cfg.Redis.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected memory backend without redis to validate, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
		{"negative rate", func(c *Config) { c.HTTP.RatePerSecond = -1 }, "http.rate_per_second"},
		{"missing base url", func(c *Config) { c.Catalog.BaseURL = "" }, "catalog.base_url"},
		{"zero max items", func(c *Config) { c.Catalog.MaxItems = 0 }, "catalog.max_items"},
		{"min above max", func(c *Config) { c.Catalog.MinItems = 500 }, "catalog.min_items"},
		{"zero max price", func(c *Config) { c.Catalog.MaxPrice = 0 }, "catalog.max_price"},
		{"negative delay", func(c *Config) { c.Catalog.DelayMs = -1 }, "catalog.delay_ms"},
		{"zero catalog concurrency", func(c *Config) { c.Catalog.Concurrency = 0 }, "catalog.concurrency"},
		{"headless catalog without renderer", func(c *Config) {
			c.Catalog.UseHeadless = true
			c.Headless.Enabled = false
		}, "catalog.use_headless"},
		{"missing headline url", func(c *Config) { c.Headlines.BaseURL = "" }, "headlines.base_url"},
		{"zero headline concurrency", func(c *Config) { c.Headlines.Concurrency = 0 }, "headlines.concurrency"},
		{"default pages out of range", func(c *Config) { c.Headlines.DefaultPages = 11 }, "headlines.default_pages"},
		{"zero wait", func(c *Config) { c.Headlines.WaitSeconds = 0 }, "headlines.wait_seconds"},
		{"zero nav timeout", func(c *Config) { c.Headless.NavTimeoutSec = 0 }, "headless.nav_timeout_seconds"},
		{"zero open timeout", func(c *Config) { c.Headless.OpenTimeoutSec = 0 }, "headless.open_timeout_seconds"},
		{"missing redis", func(c *Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "storage.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
