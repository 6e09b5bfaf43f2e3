// Package cutlistconfig is the engine's YAML-backed configuration: nested
// structs, a DefaultConfig, Load with environment-variable expansion,
// Save, and Validate.
package cutlistconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine's full tunable surface.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Service     ServiceConfig     `yaml:"service"`
	Watchdog    WatchdogConfig    `yaml:"watchdog"`
	Performance PerformanceConfig `yaml:"performance"`
}

// LoggingConfig controls pkg/logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServiceConfig controls the admission/executor layer.
type ServiceConfig struct {
	PoolSize                 int  `yaml:"pool_size"`
	QueueCapacity            int  `yaml:"queue_capacity"`
	AllowMultipleTasksPerClient bool `yaml:"allow_multiple_tasks_per_client"`
	MaxSimultaneousTasks     int  `yaml:"max_simultaneous_tasks"`
}

// WatchdogConfig controls the periodic reporting/termination sweep loop.
type WatchdogConfig struct {
	Interval                time.Duration `yaml:"interval"`
	TerminalTaskTTL         time.Duration `yaml:"terminal_task_ttl"`
	AllFitSolutionTTL       time.Duration `yaml:"all_fit_solution_ttl"`
	AbsoluteTaskTTL         time.Duration `yaml:"absolute_task_ttl"`
	ClientSilenceTTL        time.Duration `yaml:"client_silence_ttl"`
	ErrorThreadThreshold    int           `yaml:"error_thread_threshold"`
}

// PerformanceConfig mirrors the request-level performanceThresholds shape,
// used as defaults when a request omits them.
type PerformanceConfig struct {
	MaxSimultaneousThreads int           `yaml:"max_simultaneous_threads"`
	ThreadCheckInterval    time.Duration `yaml:"thread_check_interval"`
	MaxSimultaneousTasks   int           `yaml:"max_simultaneous_tasks"`
}

// DefaultConfig returns the engine's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Service: ServiceConfig{
			PoolSize:                    10,
			QueueCapacity:               1000,
			AllowMultipleTasksPerClient: false,
			MaxSimultaneousTasks:        1,
		},
		Watchdog: WatchdogConfig{
			Interval:             5 * time.Second,
			TerminalTaskTTL:      60 * time.Second,
			AllFitSolutionTTL:    60 * time.Second,
			AbsoluteTaskTTL:      10 * time.Minute,
			ClientSilenceTTL:     60 * time.Second,
			ErrorThreadThreshold: 100,
		},
		Performance: PerformanceConfig{
			MaxSimultaneousThreads: 5,
			ThreadCheckInterval:    1 * time.Second,
			MaxSimultaneousTasks:   1,
		},
	}
}

// Load reads a YAML config file, falling back to DefaultConfig if path does
// not exist, and expanding ${VAR}/$VAR references before parsing.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "cutlistopt.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the config's structural invariants.
func (c *Config) Validate() error {
	if c.Service.PoolSize < 1 {
		return fmt.Errorf("service.pool_size must be at least 1")
	}
	if c.Service.QueueCapacity < 1 {
		return fmt.Errorf("service.queue_capacity must be at least 1")
	}
	if c.Service.MaxSimultaneousTasks < 1 {
		return fmt.Errorf("service.max_simultaneous_tasks must be at least 1")
	}
	if c.Watchdog.Interval <= 0 {
		return fmt.Errorf("watchdog.interval must be positive")
	}
	if c.Performance.MaxSimultaneousThreads < 1 {
		return fmt.Errorf("performance.max_simultaneous_threads must be at least 1")
	}
	return nil
}
