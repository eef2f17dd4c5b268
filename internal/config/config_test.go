package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://buildbot.example.org
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort = %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Upstream.Timeout != DefaultUpstreamTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Upstream.Timeout, DefaultUpstreamTimeout)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("TTL = %v, want %v", cfg.Cache.TTL, DefaultCacheTTL)
	}
	if cfg.Refresh.BuildWindow != DefaultBuildWindow {
		t.Errorf("BuildWindow = %d, want %d", cfg.Refresh.BuildWindow, DefaultBuildWindow)
	}
	if cfg.Refresh.RecentWindow != DefaultRecentWindow {
		t.Errorf("RecentWindow = %v, want %v", cfg.Refresh.RecentWindow, DefaultRecentWindow)
	}
	if cfg.Stream.Interval != DefaultStreamInterval {
		t.Errorf("Interval = %v, want %v", cfg.Stream.Interval, DefaultStreamInterval)
	}
}

func TestLoad_ExplicitValuesOverrideDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9090
upstream:
  base_url: https://buildbot.example.org
  timeout: 10s
cache:
  ttl: 2m
refresh:
  build_window: 50
  concurrency: 4
  recent_window: 1h
stream:
  interval: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Upstream.Timeout)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("TTL = %v, want 2m", cfg.Cache.TTL)
	}
	if cfg.Refresh.BuildWindow != 50 || cfg.Refresh.Concurrency != 4 {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Refresh.RecentWindow != time.Hour {
		t.Errorf("RecentWindow = %v, want 1h", cfg.Refresh.RecentWindow)
	}
	if cfg.Stream.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Stream.Interval)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing base_url",
			body:    `server: {http_port: 8080}`,
			wantErr: "base_url is required",
		},
		{
			name: "relative base_url",
			body: `
upstream:
  base_url: buildbot.example.org
`,
			wantErr: "not an absolute URL",
		},
		{
			name: "port out of range",
			body: `
server:
  http_port: 70000
upstream:
  base_url: https://buildbot.example.org
`,
			wantErr: "out of range",
		},
		{
			name: "negative ttl",
			body: `
upstream:
  base_url: https://buildbot.example.org
cache:
  ttl: -1m
`,
			wantErr: "cache.ttl must be positive",
		},
		{
			name: "negative concurrency",
			body: `
upstream:
  base_url: https://buildbot.example.org
refresh:
  concurrency: -1
`,
			wantErr: "refresh.concurrency must be positive",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "upstream: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on malformed yaml")
	}
}
