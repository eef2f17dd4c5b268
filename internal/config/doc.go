// Package config loads the server configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort        - port for the dashboard, API and metrics (default 8080)
//   - Upstream.BaseURL       - base URL of the build-orchestration service (required)
//   - Upstream.Timeout       - per-call timeout against the upstream (default 30s)
//   - Cache.TTL              - result cache window (default 6m)
//   - Refresh.BuildWindow    - completed builds fetched per builder (default 200)
//   - Refresh.Concurrency    - bounded fan-out for history fetches (default 8)
//   - Refresh.RecentWindow   - disconnection demotion window (default 6h)
//   - Stream.Interval        - websocket broadcast period (default 5s)
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// re-loads the file on change and hands the new config to a callback.
package config
