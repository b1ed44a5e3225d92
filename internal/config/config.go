// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/sports-relay/config.toml",
	"configs/config.toml",
}

// placeholderAPIKey is the value shipped in the example config.
const placeholderAPIKey = "YOUR_API_KEY_HERE"

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config    string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host      string           `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port      int              `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	APIURL    string           `kong:"name='api-url',help='Sports data API base URL (overrides config).',env='SPORTS_API_URL'"`
	APIKey    string           `kong:"name='api-key',help='Sports data API subscription key (overrides config).',env='SPORTS_API_KEY'"`
	LogLevel  string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	LogFormat string           `kong:"help='Log format: json|text (overrides config).',env='LOG_FORMAT'"`
	Version   kong.VersionFlag `kong:"short='v',help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (3000)
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// UpstreamConfig holds the sports data API endpoint, credentials and
// connection settings.
type UpstreamConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// TimeoutSeconds of 0 leaves the upstream call unbounded.
	TimeoutSeconds  int `toml:"timeout_seconds"`
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings. Metrics are served on a
// dedicated listener, never on the relay address.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Path    string `toml:"path"`
}

// Load reads the optional TOML config file and applies CLI overrides.
// An explicit path (via --config or CONFIG_PATH) must exist. Otherwise
// /etc/sports-relay/config.toml then configs/config.toml are tried, and
// when neither exists the relay runs on defaults plus flags/environment.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()

	if cfg.Metrics.Enabled {
		// SplitHostPort was checked in validate.
		if _, port, _ := net.SplitHostPort(cfg.Metrics.Addr); port == strconv.Itoa(cfg.Server.Port) {
			return nil, fmt.Errorf("config: validate: metrics.addr %q must not share the relay port %d", cfg.Metrics.Addr, cfg.Server.Port)
		}
	}

	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.APIURL != "" {
		c.Upstream.BaseURL = cli.APIURL
	}
	if cli.APIKey != "" {
		c.Upstream.APIKey = cli.APIKey
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		c.Log.Format = cli.LogFormat
	}
}

func (c *Config) validate() error {
	if c.Upstream.APIKey == placeholderAPIKey {
		return fmt.Errorf("upstream.api_key contains placeholder value; set a real subscription key")
	}

	// The base URL may be left unset: the health probe still works and
	// lookups fail with the error envelope.
	if c.Upstream.BaseURL != "" {
		u, err := url.Parse(c.Upstream.BaseURL)
		if err != nil {
			return fmt.Errorf("upstream.base_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("upstream.base_url must use http or https; got %q", c.Upstream.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("upstream.base_url must include a host; got %q", c.Upstream.BaseURL)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0-65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled {
		if p := c.Metrics.Path; p != "" && p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if a := c.Metrics.Addr; a != "" {
			_, port, err := net.SplitHostPort(a)
			if err != nil {
				return fmt.Errorf("metrics.addr must be host:port: %w", err)
			}
			if _, err := strconv.Atoi(port); err != nil {
				return fmt.Errorf("metrics.addr port must be numeric; got %q", port)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with defaults. TimeoutSeconds has no
// default; zero means no upstream timeout.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024 // 1 MiB
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FilePath returns the config file that was loaded, or empty string when
// the configuration came from flags and environment only.
func (c *Config) FilePath() string {
	return c.filePath
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
