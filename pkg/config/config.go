// Package config provides configuration loading and management for labelvec.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many planes are vectorized concurrently
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"processing"`

	// Vectorization parameters
	Vectorize struct {
		// FallbackSquareHalfWidth is the half-width in pixels of the
		// synthetic placeholder square used for objects whose boundary
		// cannot be traced (border-consumed or degenerate objects)
		FallbackSquareHalfWidth int `yaml:"fallbackSquareHalfWidth"`
	} `yaml:"vectorize"`

	// Offset parameters placing the tile on the global map
	Offset struct {
		// X is the horizontal offset added to local x-coordinates
		X int `yaml:"x"`

		// Y is the vertical offset added to local y-coordinates before
		// the axis inversion
		Y int `yaml:"y"`
	} `yaml:"offset"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumWorkers = runtime.NumCPU() // Use all available cores by default

	// Set default vectorization parameters
	cfg.Vectorize.FallbackSquareHalfWidth = 1

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
