package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the daemon configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultMonitorInterval = 100 * time.Millisecond
	DefaultHistoryCap      = 1000
	DefaultBroadcast       = 5 * time.Second
)

// Config is the root of the driftwatch configuration file.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// HTTPConfig holds the query-surface listener settings.
type HTTPConfig struct {
	// Port is the port the REST API and WebSocket hub listen on (default 8080).
	Port int `yaml:"port"`

	// BroadcastInterval is how often the WebSocket hub pushes fresh results
	// to connected clients (default 5s).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// AnalysisConfig holds the differential analysis settings.
type AnalysisConfig struct {
	// MonitorInterval is the sleep between real-time monitoring iterations
	// (default 100ms).
	MonitorInterval time.Duration `yaml:"monitor_interval"`

	// HistoryCap bounds the in-memory result history (default 1000).
	HistoryCap int `yaml:"history_cap"`

	// Parallel enables concurrent metric dispatch (default true).
	Parallel *bool `yaml:"parallel"`

	// Metrics carries per-metric settings applied on load and on reload.
	Metrics []MetricConfig `yaml:"metrics"`
}

// MetricConfig holds the tunable settings of one registered metric.
type MetricConfig struct {
	// Name is the registry key of the metric being configured.
	Name string `yaml:"name"`

	// Disabled turns the metric off without unregistering it.
	Disabled bool `yaml:"disabled"`

	// WarningThreshold and CriticalThreshold override the metric's score
	// thresholds. Zero values keep the metric's defaults.
	WarningThreshold  float64 `yaml:"warning_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold"`
}

// ParallelEnabled returns the parallel-dispatch flag, defaulting to true
// when the key is absent.
func (a AnalysisConfig) ParallelEnabled() bool {
	if a.Parallel == nil {
		return true
	}
	return *a.Parallel
}

// Load reads and parses the config file at path. Missing fields are
// filled with defaults before validation.
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
		HTTP: HTTPConfig{
			Port:              DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcast,
		},
		Analysis: AnalysisConfig{
			MonitorInterval: DefaultMonitorInterval,
			HistoryCap:      DefaultHistoryCap,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range [1, 65535]", cfg.HTTP.Port)
	}
	if cfg.HTTP.BroadcastInterval <= 0 {
		return fmt.Errorf("http.broadcast_interval must be positive")
	}
	if cfg.Analysis.MonitorInterval <= 0 {
		return fmt.Errorf("analysis.monitor_interval must be positive")
	}
	if cfg.Analysis.HistoryCap <= 0 {
		return fmt.Errorf("analysis.history_cap must be positive")
	}
	for _, m := range cfg.Analysis.Metrics {
		if m.Name == "" {
			return fmt.Errorf("analysis.metrics entry is missing a name")
		}
		if m.WarningThreshold < 0 || m.WarningThreshold > 1 {
			return fmt.Errorf("metric %q: warning_threshold %v out of range [0, 1]", m.Name, m.WarningThreshold)
		}
		if m.CriticalThreshold < 0 || m.CriticalThreshold > 1 {
			return fmt.Errorf("metric %q: critical_threshold %v out of range [0, 1]", m.Name, m.CriticalThreshold)
		}
		if m.WarningThreshold != 0 && m.CriticalThreshold != 0 && m.CriticalThreshold > m.WarningThreshold {
			return fmt.Errorf("metric %q: critical_threshold must not exceed warning_threshold", m.Name)
		}
	}
	return nil
}
