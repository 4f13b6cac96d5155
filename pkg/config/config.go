// Package config provides configuration loading and management for eqsgrid.
// It handles loading configuration from YAML files and provides default
// values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Survey parameters for the synthetic demo data
	Survey struct {
		// Region is the horizontal extent of the survey in meters
		West  float64 `yaml:"west"`
		East  float64 `yaml:"east"`
		South float64 `yaml:"south"`
		North float64 `yaml:"north"`

		// Points is the number of scattered observation points
		Points int `yaml:"points"`

		// Height is the observation height in meters
		Height float64 `yaml:"height"`

		// SourceDepth is the depth of the true synthetic source below
		// the observation height, in meters
		SourceDepth float64 `yaml:"sourceDepth"`

		// SourceStrength is the strength of the true synthetic source
		SourceStrength float64 `yaml:"sourceStrength"`

		// NoiseStdDev is the standard deviation of gaussian noise added
		// to the synthetic values, in data units
		NoiseStdDev float64 `yaml:"noiseStdDev"`

		// Seed fixes the scatter and noise generation
		Seed int64 `yaml:"seed"`
	} `yaml:"survey"`

	// Kernel parameters
	Kernel struct {
		// Field selects the physical kernel: gravity_potential,
		// gravity_upward or magnetic_dipole
		Field string `yaml:"field"`

		// Derivative selects a spatial derivative of the field on the
		// output grid: none, easting, northing or upward
		Derivative string `yaml:"derivative"`

		// Inclination and Declination give the ambient field direction
		// in degrees, used by the magnetic kernel only
		Inclination float64 `yaml:"inclination"`
		Declination float64 `yaml:"declination"`
	} `yaml:"kernel"`

	// Layout parameters for source placement
	Layout struct {
		// Policy is below_data or block_averaged
		Policy string `yaml:"policy"`

		// Depth is the source depth below the data in meters
		Depth float64 `yaml:"depth"`

		// BlockSize is the block edge length for block_averaged, in
		// meters
		BlockSize float64 `yaml:"blockSize"`
	} `yaml:"layout"`

	// Solver parameters
	Solver struct {
		// Damping is the dimensionless Tikhonov regularization
		// parameter
		Damping float64 `yaml:"damping"`
	} `yaml:"solver"`

	// CrossVal parameters for hyperparameter selection
	CrossVal struct {
		// Folds is the number of spatial cross-validation folds
		Folds int `yaml:"folds"`

		// BlockSize is the spatial blocking cell size in meters
		BlockSize float64 `yaml:"blockSize"`

		// Seed fixes the fold partition
		Seed int64 `yaml:"seed"`

		// Workers bounds the parallel units; 0 means all cores
		Workers int `yaml:"workers"`

		// Depths and Dampings span the candidate grid
		Depths   []float64 `yaml:"depths"`
		Dampings []float64 `yaml:"dampings"`
	} `yaml:"crossval"`

	// Grid parameters for the prediction output
	Grid struct {
		// NEasting and NNorthing give the output grid shape
		NEasting  int `yaml:"nEasting"`
		NNorthing int `yaml:"nNorthing"`

		// Height is the prediction height in meters
		Height float64 `yaml:"height"`
	} `yaml:"grid"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default survey parameters: a 2x2 km survey over a compact
	// source buried 200 m below the data
	cfg.Survey.West = -1000
	cfg.Survey.East = 1000
	cfg.Survey.South = -1000
	cfg.Survey.North = 1000
	cfg.Survey.Points = 300
	cfg.Survey.Height = 0
	cfg.Survey.SourceDepth = 200
	cfg.Survey.SourceStrength = 1e12
	cfg.Survey.NoiseStdDev = 0
	cfg.Survey.Seed = 42

	// Set default kernel parameters
	cfg.Kernel.Field = "gravity_upward"
	cfg.Kernel.Derivative = "none"
	cfg.Kernel.Inclination = 90
	cfg.Kernel.Declination = 0

	// Set default layout parameters
	cfg.Layout.Policy = "below_data"
	cfg.Layout.Depth = 300
	cfg.Layout.BlockSize = 200

	// Set default solver parameters
	cfg.Solver.Damping = 1e-8

	// Set default cross-validation parameters
	cfg.CrossVal.Folds = 5
	cfg.CrossVal.BlockSize = 400
	cfg.CrossVal.Seed = 1
	cfg.CrossVal.Workers = runtime.NumCPU()
	cfg.CrossVal.Depths = []float64{100, 200, 300, 500}
	cfg.CrossVal.Dampings = []float64{1e-10, 1e-8, 1e-6, 1e-4}

	// Set default grid parameters
	cfg.Grid.NEasting = 50
	cfg.Grid.NNorthing = 50
	cfg.Grid.Height = 0

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
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

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
