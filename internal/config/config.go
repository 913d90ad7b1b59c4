// Package config provides configuration management for the CLI shells.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"vacuum-landscape/core/landscape"
	"vacuum-landscape/core/mcmc"
	"vacuum-landscape/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Runs contains sampler run defaults
	Runs RunsConfig `json:"runs"`

	// Landscape contains landscape dispatch defaults
	Landscape LandscapeConfig `json:"landscape"`

	// Registry contains result registry configuration
	Registry RegistryConfig `json:"registry"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// RunsConfig contains sampler-run defaults
type RunsConfig struct {
	// OutputDirectory is where run artefacts land when no --out is given
	OutputDirectory string `json:"output_directory"`

	// KeepEndState retains the cold replica end state on disk
	KeepEndState bool `json:"keep_end_state"`
}

// LandscapeConfig contains landscape dispatch defaults
type LandscapeConfig struct {
	// Concurrency bounds parallel landscape jobs
	Concurrency int `json:"concurrency"`

	// MaxRetries bounds deterministic retries per job
	MaxRetries int `json:"max_retries"`
}

// RegistryConfig contains result registry settings
type RegistryConfig struct {
	// Path is the default registry location; the extension selects the
	// backend (.sqlite/.db for SQLite, anything else for CSV)
	Path string `json:"path"`

	// PlanName labels appended runs when none is given
	PlanName string `json:"plan_name"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	appDir := filepath.Join(homeDir, ".vacuum-landscape")

	return &Config{
		Version: "1.0",
		Runs: RunsConfig{
			OutputDirectory: filepath.Join(appDir, "runs"),
			KeepEndState:    true,
		},
		Landscape: LandscapeConfig{
			Concurrency: 1,
			MaxRetries:  2,
		},
		Registry: RegistryConfig{
			Path:     filepath.Join(appDir, "registry.sqlite"),
			PlanName: "default",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadRun loads a sampler run configuration from YAML.
func LoadRun(path string) (mcmc.RunConfig, error) {
	return mcmc.LoadConfig(path)
}

// LoadPlan loads a landscape plan from YAML or HCL, selected by extension.
func LoadPlan(path string) (*landscape.Plan, error) {
	return landscape.LoadPlan(path)
}

// LoadFilters loads a landscape filter spec from YAML.
func LoadFilters(path string) (landscape.FilterSpec, error) {
	return landscape.LoadFilters(path)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
