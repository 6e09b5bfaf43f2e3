package main

import (
	"fmt"
	"os"

	"github.com/cutlistopt/engine/pkg/cutlistconfig"
	"github.com/cutlistopt/engine/pkg/logging"
)

// loadConfig loads the engine configuration from file, auto-generating a
// default one if it does not exist yet.
func loadConfig() (*cutlistconfig.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = "cutlistopt.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("config file not found, creating default configuration at: %s\n", configPath)
		cfg := cutlistconfig.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := cutlistconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *cutlistconfig.Config) *logging.Logger {
	level := logging.Level(cfg.Logging.Level)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(cfg.Logging.Format),
		Output: os.Stdout,
	})
}
