package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultCacheTTL        = 6 * time.Minute
	DefaultBuildWindow     = 200
	DefaultConcurrency     = 8
	DefaultRecentWindow    = 6 * time.Hour
	DefaultStreamInterval  = 5 * time.Second
)

// Config is the root of the YAML configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Stream   StreamConfig   `yaml:"stream"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	// HTTPPort is the port the dashboard, JSON API, websocket stream and
	// metrics endpoint listen on (default 8080).
	HTTPPort int `yaml:"http_port"`
}

// UpstreamConfig points at the build-orchestration service.
type UpstreamConfig struct {
	// BaseURL is the service root, e.g. "https://buildbot.example.org".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every individual upstream call. A call that exceeds it
	// fails the whole refresh (default 30s).
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	// TTL is the single-slot cache window. Requests within it are served
	// from memory with no upstream traffic (default 6m).
	TTL time.Duration `yaml:"ttl"`
}

// RefreshConfig tunes one recomputation.
type RefreshConfig struct {
	// BuildWindow is how many completed builds to fetch per builder
	// (default 200).
	BuildWindow int `yaml:"build_window"`

	// Concurrency bounds concurrent per-builder history fetches (default 8).
	Concurrency int `yaml:"concurrency"`

	// RecentWindow is how recently a build must have started for a
	// disconnected builder to be demoted one severity band (default 6h).
	RecentWindow time.Duration `yaml:"recent_window"`
}

// StreamConfig controls the websocket hub.
type StreamConfig struct {
	// Interval is how often the current dashboard snapshot is broadcast to
	// connected clients (default 5s).
	Interval time.Duration `yaml:"interval"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server:   ServerConfig{HTTPPort: DefaultHTTPPort},
		Upstream: UpstreamConfig{Timeout: DefaultUpstreamTimeout},
		Cache:    CacheConfig{TTL: DefaultCacheTTL},
		Refresh: RefreshConfig{
			BuildWindow:  DefaultBuildWindow,
			Concurrency:  DefaultConcurrency,
			RecentWindow: DefaultRecentWindow,
		},
		Stream: StreamConfig{Interval: DefaultStreamInterval},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not an absolute URL", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if cfg.Refresh.BuildWindow <= 0 {
		return fmt.Errorf("refresh.build_window must be positive")
	}
	if cfg.Refresh.Concurrency <= 0 {
		return fmt.Errorf("refresh.concurrency must be positive")
	}
	if cfg.Refresh.RecentWindow <= 0 {
		return fmt.Errorf("refresh.recent_window must be positive")
	}
	if cfg.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	return nil
}
