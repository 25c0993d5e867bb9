package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Config holds the CLI's settings. Command-line flags override the values for
// a single run.
type Config struct {
	DatabasePath      string `json:"database_path"`
	LogLevel          string `json:"log_level"`
	SplitMode         string `json:"split_mode"` // "words" or "runes"
	MaxOrder          int    `json:"max_order"`
	DesiredNextStates int    `json:"desired_next_states"`
	MaxLength         int    `json:"max_length"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:      "./markov.db",
		LogLevel:          "info",
		SplitMode:         "words",
		MaxOrder:          3,
		DesiredNextStates: 2,
		MaxLength:         200,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path. If
// the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The run can still proceed with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
