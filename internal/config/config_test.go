package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes data to a config.toml in a temp dir and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// withSearchPaths points config discovery at paths for the duration of the test.
func withSearchPaths(t *testing.T, paths ...string) {
	t.Helper()
	orig := configSearchPaths
	configSearchPaths = paths
	t.Cleanup(func() { configSearchPaths = orig })
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 4096

[upstream]
base_url = "https://api.sportsdata.io/v3/nba/scores/json/GamesByDate"
api_key = "test-key-12345"
timeout_seconds = 20
idle_connections = 50

[log]
level = "debug"
format = "text"

[metrics]
enabled = true
addr = "127.0.0.1:9191"
path = "/internal/metrics"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "127.0.0.1:9000")
	}
	if cfg.Server.BodyMaxBytes != 4096 {
		t.Errorf("Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 4096)
	}
	if cfg.Upstream.BaseURL != "https://api.sportsdata.io/v3/nba/scores/json/GamesByDate" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIKey != "test-key-12345" {
		t.Errorf("Upstream.APIKey = %q, want %q", cfg.Upstream.APIKey, "test-key-12345")
	}
	if cfg.Upstream.TimeoutSeconds != 20 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 20)
	}
	if cfg.Upstream.IdleConnections != 50 {
		t.Errorf("Upstream.IdleConnections = %d, want %d", cfg.Upstream.IdleConnections, 50)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want debug/text", cfg.Log)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9191" || cfg.Metrics.Path != "/internal/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.FilePath() != path {
		t.Errorf("FilePath() = %q, want %q", cfg.FilePath(), path)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	withSearchPaths(t, filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v; a config file should be optional", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("default Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Server.BodyMaxBytes != 1024*1024 {
		t.Errorf("default Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 1024*1024)
	}
	if cfg.Upstream.BaseURL != "" {
		t.Errorf("default Upstream.BaseURL = %q, want empty", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSeconds != 0 {
		t.Errorf("default Upstream.TimeoutSeconds = %d, want 0 (no timeout)", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Upstream.IdleConnections != 100 {
		t.Errorf("default Upstream.IdleConnections = %d, want %d", cfg.Upstream.IdleConnections, 100)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Enabled {
		t.Error("expected Metrics.Enabled = false by default")
	}
	if cfg.Metrics.Addr != "127.0.0.1:9090" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics = %+v", cfg.Metrics)
	}
	if cfg.FilePath() != "" {
		t.Errorf("FilePath() = %q, want empty", cfg.FilePath())
	}
}

func TestLoad_SearchPath(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 4000
`)
	withSearchPaths(t, filepath.Join(t.TempDir(), "missing.toml"), path)

	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
	if cfg.FilePath() != path {
		t.Errorf("FilePath() = %q, want %q", cfg.FilePath(), path)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit file, got nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, `[server`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for invalid TOML, got nil")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error = %q, want mention of parse", err)
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8000

[upstream]
base_url = "https://toml.example.com"
api_key = "toml-key"

[log]
level = "info"
format = "json"
`)

	cli := &CLI{
		Config:    path,
		Host:      "127.0.0.1",
		Port:      3001,
		APIURL:    "http://cli.example.com/games",
		APIKey:    "cli-key",
		LogLevel:  "debug",
		LogFormat: "text",
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q (CLI override)", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want %d (CLI override)", cfg.Server.Port, 3001)
	}
	if cfg.Upstream.BaseURL != "http://cli.example.com/games" {
		t.Errorf("Upstream.BaseURL = %q, want %q (CLI override)", cfg.Upstream.BaseURL, "http://cli.example.com/games")
	}
	if cfg.Upstream.APIKey != "cli-key" {
		t.Errorf("Upstream.APIKey = %q, want %q (CLI override)", cfg.Upstream.APIKey, "cli-key")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want debug/text (CLI override)", cfg.Log)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "placeholder api key",
			data:    "[upstream]\napi_key = \"YOUR_API_KEY_HERE\"\n",
			wantErr: "placeholder",
		},
		{
			name:    "unsupported scheme",
			data:    "[upstream]\nbase_url = \"ftp://api.example.com\"\n",
			wantErr: "http or https",
		},
		{
			name:    "relative base url",
			data:    "[upstream]\nbase_url = \"/games\"\n",
			wantErr: "http or https",
		},
		{
			name:    "missing host",
			data:    "[upstream]\nbase_url = \"https://\"\n",
			wantErr: "host",
		},
		{
			name:    "negative port",
			data:    "[server]\nport = -1\n",
			wantErr: "server.port",
		},
		{
			name:    "port too large",
			data:    "[server]\nport = 70000\n",
			wantErr: "server.port",
		},
		{
			name:    "negative body_max_bytes",
			data:    "[server]\nbody_max_bytes = -1\n",
			wantErr: "body_max_bytes",
		},
		{
			name:    "negative timeout",
			data:    "[upstream]\ntimeout_seconds = -5\n",
			wantErr: "timeout_seconds",
		},
		{
			name:    "negative idle connections",
			data:    "[upstream]\nidle_connections = -1\n",
			wantErr: "idle_connections",
		},
		{
			name:    "invalid log level",
			data:    "[log]\nlevel = \"verbose\"\n",
			wantErr: "log.level",
		},
		{
			name:    "invalid log format",
			data:    "[log]\nformat = \"xml\"\n",
			wantErr: "log.format",
		},
		{
			name:    "metrics path without slash",
			data:    "[metrics]\nenabled = true\npath = \"metrics\"\n",
			wantErr: "metrics.path",
		},
		{
			name:    "metrics addr without port",
			data:    "[metrics]\nenabled = true\naddr = \"localhost\"\n",
			wantErr: "metrics.addr",
		},
		{
			name:    "metrics shares relay port",
			data:    "[server]\nport = 9090\n\n[metrics]\nenabled = true\naddr = \"127.0.0.1:9090\"\n",
			wantErr: "relay port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.data)

			_, err := Load(cliWithPath(path))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MetricsValidationSkippedWhenDisabled(t *testing.T) {
	path := writeConfig(t, `
[metrics]
enabled = false
path = "no-slash"
`)

	if _, err := Load(cliWithPath(path)); err != nil {
		t.Fatalf("Load() error = %v; disabled metrics should not be validated", err)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1", 8080, "127.0.0.1:8080"},
		{"::1", 3000, "[::1]:3000"},
	}

	for _, tt := range tests {
		c := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestFindConfigInPaths(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(existing, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := findConfigInPaths([]string{filepath.Join(dir, "nope.toml"), existing}); got != existing {
		t.Errorf("findConfigInPaths() = %q, want %q", got, existing)
	}
	if got := findConfigInPaths([]string{filepath.Join(dir, "nope.toml")}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permission warning, got: %q", buf.String())
	}
}

func TestWarnPermissions_Strict(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no warning for 0600 file, got: %q", buf.String())
	}
}

func TestWarnPermissions_NoFile(t *testing.T) {
	cfg := &Config{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no output without a config file, got: %q", buf.String())
	}
}
