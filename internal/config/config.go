// Package config loads netcore settings.
//
// Sources, lowest to highest precedence:
//  1. built-in defaults
//  2. YAML config file (see FindConfigPath)
//  3. .env in the working directory (never overrides the real environment)
//  4. environment variables: DATABASE_URL, INTERVAL, NMAP_DIR, LISTEN_ADDR,
//     LOG_LEVEL, LOG_FORMAT, PROBE_TIMEOUT, PROBE_MAX_CONCURRENT, PROBER
//
// Configuration is read once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingDatabaseURL is returned by Validate when no store is configured
var ErrMissingDatabaseURL = errors.New("database url is required (set DATABASE_URL or database.url)")

// ValidationError reports an invalid setting
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Load finds the config file (or uses explicitPath when set), then applies
// .env and environment overrides. The returned path is "" when no file was
// used.
func Load(explicitPath string) (*Config, string, error) {
	path := explicitPath
	if path == "" {
		path = FindConfigPath()
	}

	cfg := DefaultConfig()
	if path != "" {
		loaded, _, err := LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
		cfg = loaded
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, path, fmt.Errorf("load .env: %w", err)
	}

	// Env values are taken as given; a zero INTERVAL fails Validate
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	// Keys missing from the file keep their DefaultConfig value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Dir:      ".",
			Debounce: Duration(2 * time.Second),
		},
		Monitor: MonitorConfig{
			Interval:      Duration(60 * time.Second),
			ProbeTimeout:  Duration(2 * time.Second),
			MaxConcurrent: 64,
			Prober:        "exec",
		},
		Server: ServerConfig{Listen: ":8080"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// applyDefaults restores string settings a file set to "". Numeric values
// are left alone so Validate sees them.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Scan.Dir == "" {
		c.Scan.Dir = d.Scan.Dir
	}
	if c.Monitor.Prober == "" {
		c.Monitor.Prober = d.Monitor.Prober
	}
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// applyEnv overrides settings from the environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := get("NMAP_DIR"); ok {
		c.Scan.Dir = v
	}
	if v, ok := get("LISTEN_ADDR"); ok {
		c.Server.Listen = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("PROBER"); ok {
		c.Monitor.Prober = v
	}
	if v, ok := get("INTERVAL"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return &ValidationError{Field: "INTERVAL", Reason: err.Error()}
		}
		c.Monitor.Interval = Duration(d)
	}
	if v, ok := get("PROBE_TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return &ValidationError{Field: "PROBE_TIMEOUT", Reason: err.Error()}
		}
		c.Monitor.ProbeTimeout = Duration(d)
	}
	if v, ok := get("PROBE_MAX_CONCURRENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "PROBE_MAX_CONCURRENT", Reason: "must be an integer"}
		}
		c.Monitor.MaxConcurrent = n
	}
	return nil
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.Monitor.Interval.Duration() <= 0 {
		return &ValidationError{Field: "monitor.interval", Reason: "must be positive"}
	}
	if c.Monitor.ProbeTimeout.Duration() <= 0 {
		return &ValidationError{Field: "monitor.probe_timeout", Reason: "must be positive"}
	}
	if c.Monitor.MaxConcurrent < 0 {
		return &ValidationError{Field: "monitor.max_concurrent", Reason: "must not be negative"}
	}
	switch c.Monitor.Prober {
	case "exec", "icmp":
	default:
		return &ValidationError{Field: "monitor.prober", Reason: fmt.Sprintf("unknown prober %q", c.Monitor.Prober)}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "log.format", Reason: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}

// parseDuration accepts Go durations ("90s") and bare integers as seconds
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
