// Package config loads and validates renderfeed configuration via Viper.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/feed"
)

// Config captures all service configuration knobs loaded via Viper. The
// value is immutable once Load returns.
type Config struct {
	Pool    PoolConfig    `mapstructure:"pool"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Parse   ParseConfig   `mapstructure:"parse"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PoolConfig sizes the browser pool.
type PoolConfig struct {
	Size              int  `mapstructure:"size"`
	AcquireTimeoutSec int  `mapstructure:"acquire_timeout_seconds"`
	RecoveryRetries   int  `mapstructure:"recovery_retries"`
	DisableSandbox    bool `mapstructure:"disable_sandbox"`
	Containerized     bool `mapstructure:"containerized"`
}

// FetchConfig governs retrieval and retry behavior.
type FetchConfig struct {
	TimeoutMs        int     `mapstructure:"timeout_ms"`
	Retries          int     `mapstructure:"retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	BackoffFactor    float64 `mapstructure:"backoff_factor"`
	UserAgent        string  `mapstructure:"user_agent"`
	ProbeFirst       bool    `mapstructure:"probe_first"`
}

// ParseConfig holds the optional extraction patterns.
type ParseConfig struct {
	TitlePrefixPattern string `mapstructure:"title_prefix_pattern"`
	TitleSuffixPattern string `mapstructure:"title_suffix_pattern"`
	ItemIDPattern      string `mapstructure:"item_id_pattern"`
	LinkPattern        string `mapstructure:"link_pattern"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RENDERFEED")
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
	v.SetDefault("pool.size", 2)
	v.SetDefault("pool.acquire_timeout_seconds", 60)
	v.SetDefault("pool.recovery_retries", 3)
	v.SetDefault("pool.disable_sandbox", false)
	v.SetDefault("pool.containerized", false)
	v.SetDefault("fetch.timeout_ms", 30000)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 250)
	v.SetDefault("fetch.backoff_max_ms", 5000)
	v.SetDefault("fetch.backoff_factor", 2.0)
	v.SetDefault("fetch.user_agent", "renderfeed/1.0 (+https://github.com/avasile/renderfeed)")
	v.SetDefault("fetch.probe_first", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Pool.Size < 1 {
		return fmt.Errorf("pool.size must be >= 1")
	}
	if c.Fetch.Retries < 1 {
		return fmt.Errorf("fetch.retries must be >= 1")
	}
	if c.Fetch.TimeoutMs <= 0 {
		return fmt.Errorf("fetch.timeout_ms must be > 0")
	}
	if c.Pool.DisableSandbox && !c.Pool.Containerized {
		return fmt.Errorf("pool.disable_sandbox requires pool.containerized to be set")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}

// ClientOptions converts the loaded configuration into feed.Options. A
// pattern that fails to compile is dropped with a warning; the pipeline
// continues as if it were never configured.
func (c Config) ClientOptions(logger *zap.Logger) feed.Options {
	if logger == nil {
		logger = zap.NewNop()
	}
	return feed.Options{
		PoolSize:           c.Pool.Size,
		AcquireTimeout:     time.Duration(c.Pool.AcquireTimeoutSec) * time.Second,
		RecoveryRetries:    c.Pool.RecoveryRetries,
		RetryAttempts:      c.Fetch.Retries,
		FetchTimeout:       time.Duration(c.Fetch.TimeoutMs) * time.Millisecond,
		BackoffInitial:     time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond,
		BackoffMax:         time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond,
		BackoffFactor:      c.Fetch.BackoffFactor,
		UserAgent:          c.Fetch.UserAgent,
		DisableSandbox:     c.Pool.DisableSandbox && c.Pool.Containerized,
		ProbeFirst:         c.Fetch.ProbeFirst,
		TitlePrefixPattern: compilePattern(c.Parse.TitlePrefixPattern, "parse.title_prefix_pattern", logger),
		TitleSuffixPattern: compilePattern(c.Parse.TitleSuffixPattern, "parse.title_suffix_pattern", logger),
		ItemIDPattern:      compilePattern(c.Parse.ItemIDPattern, "parse.item_id_pattern", logger),
		LinkPattern:        compilePattern(c.Parse.LinkPattern, "parse.link_pattern", logger),
	}
}

func compilePattern(pattern, key string, logger *zap.Logger) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.Warn("dropping malformed pattern", zap.String("key", key), zap.Error(err))
		return nil
	}
	return re
}
