// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Headlines HeadlinesConfig `mapstructure:"headlines"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	DB        DBConfig        `mapstructure:"db"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// HTTPConfig configures the plain fetch adapter.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	UserAgent      string  `mapstructure:"user_agent"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	RateBurst      int     `mapstructure:"rate_burst"`
}

// CatalogConfig governs the frontier crawl.
type CatalogConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	MinItems    int     `mapstructure:"min_items"`
	MaxItems    int     `mapstructure:"max_items"`
	MaxPrice    float64 `mapstructure:"max_price"`
	DelayMs     int     `mapstructure:"delay_ms"`
	Concurrency int     `mapstructure:"concurrency"`
	UseHeadless bool    `mapstructure:"use_headless"`
}

// HeadlinesConfig governs the news listing crawl.
type HeadlinesConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Concurrency  int    `mapstructure:"concurrency"`
	DefaultPages int    `mapstructure:"default_pages"`
	WaitSeconds  int    `mapstructure:"wait_seconds"`
}

// HeadlessConfig configures the rendering subsystem.
type HeadlessConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	NavTimeoutSec  int    `mapstructure:"nav_timeout_seconds"`
	OpenTimeoutSec int    `mapstructure:"open_timeout_seconds"`
}

// Item store backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// StorageConfig selects the item store. The memory backend is process-local
// and meant for development.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig locates the item store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DBConfig controls the optional crawl run ledger. An empty DSN disables it.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.user_agent", defaultUserAgent)
	v.SetDefault("http.rate_per_second", 0)
	v.SetDefault("http.rate_burst", 1)
	v.SetDefault("catalog.base_url", "https://books.toscrape.com/index.html")
	v.SetDefault("catalog.min_items", 50)
	v.SetDefault("catalog.max_items", 100)
	v.SetDefault("catalog.max_price", 20.0)
	v.SetDefault("catalog.delay_ms", 1000)
	v.SetDefault("catalog.concurrency", 5)
	v.SetDefault("catalog.use_headless", false)
	v.SetDefault("headlines.base_url", "https://news.ycombinator.com/news")
	v.SetDefault("headlines.concurrency", 3)
	v.SetDefault("headlines.default_pages", 5)
	v.SetDefault("headlines.wait_seconds", 10)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.endpoint", "")
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.open_timeout_seconds", 15)
	v.SetDefault("storage.backend", StorageRedis)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "crawl_runs")
	v.SetDefault("db.max_conns", 4)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.RatePerSecond < 0 {
		return fmt.Errorf("http.rate_per_second must be >= 0")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.Catalog.MaxItems <= 0 {
		return fmt.Errorf("catalog.max_items must be > 0")
	}
	if c.Catalog.MinItems < 0 || c.Catalog.MinItems > c.Catalog.MaxItems {
		return fmt.Errorf("catalog.min_items must be between 0 and catalog.max_items")
	}
	if c.Catalog.MaxPrice <= 0 {
		return fmt.Errorf("catalog.max_price must be > 0")
	}
	if c.Catalog.DelayMs < 0 {
		return fmt.Errorf("catalog.delay_ms must be >= 0")
	}
	if c.Catalog.Concurrency <= 0 {
		return fmt.Errorf("catalog.concurrency must be > 0")
	}
	if c.Catalog.UseHeadless && !c.Headless.Enabled {
		return fmt.Errorf("catalog.use_headless requires headless.enabled")
	}
	if c.Headlines.BaseURL == "" {
		return fmt.Errorf("headlines.base_url is required")
	}
	if c.Headlines.Concurrency <= 0 {
		return fmt.Errorf("headlines.concurrency must be > 0")
	}
	if c.Headlines.DefaultPages < 1 || c.Headlines.DefaultPages > 10 {
		return fmt.Errorf("headlines.default_pages must be between 1 and 10")
	}
	if c.Headlines.WaitSeconds <= 0 {
		return fmt.Errorf("headlines.wait_seconds must be > 0")
	}
	if c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0")
	}
	if c.Headless.OpenTimeoutSec <= 0 {
		return fmt.Errorf("headless.open_timeout_seconds must be > 0")
	}
	switch c.Storage.Backend {
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage.backend must be %q or %q", StorageRedis, StorageMemory)
	}
	return nil
}

// FetchTimeout returns the per-request timeout of the plain fetch adapter.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PolitenessDelay returns the pause between frontier pages.
func (c Config) PolitenessDelay() time.Duration {
	return time.Duration(c.Catalog.DelayMs) * time.Millisecond
}

// HeadlineWait returns the bounded wait for the story-row marker.
func (c Config) HeadlineWait() time.Duration {
	return time.Duration(c.Headlines.WaitSeconds) * time.Second
}

// NavigationTimeout returns the page-load limit of a rendering session.
func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// SessionOpenTimeout returns how long opening a rendering session may take.
func (c Config) SessionOpenTimeout() time.Duration {
	return time.Duration(c.Headless.OpenTimeoutSec) * time.Second
}
