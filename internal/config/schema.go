package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds store settings
type DatabaseConfig struct {
	// URL selects the backend: postgres://..., sqlite://path or a bare path
	URL string `yaml:"url"`
}

// ScanConfig locates the externally produced nmap documents
type ScanConfig struct {
	Dir      string   `yaml:"dir"`
	Debounce Duration `yaml:"debounce"`
}

// MonitorConfig holds liveness monitor settings
type MonitorConfig struct {
	Interval      Duration `yaml:"interval"`
	ProbeTimeout  Duration `yaml:"probe_timeout"`
	MaxConcurrent int      `yaml:"max_concurrent"` // 0 = unbounded
	Prober        string   `yaml:"prober"`         // exec, icmp
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
