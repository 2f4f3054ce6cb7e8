// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"option-lattice/core/book"
	"option-lattice/core/schedule"
	"option-lattice/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Lattice contains pricer settings
	Lattice LatticeConfig `json:"lattice"`

	// Book contains book valuation settings
	Book BookConfig `json:"book"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Schedule contains scheduled revaluation settings
	Schedule ScheduleConfig `json:"schedule"`

	// Server contains HTTP API settings
	Server ServerConfig `json:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// LatticeConfig contains pricer settings
type LatticeConfig struct {
	// DefaultSteps is used when a request or book entry omits steps
	DefaultSteps int `json:"default_steps"`

	// DefaultDividendsPerYear is used when a request or book entry omits it
	DefaultDividendsPerYear int `json:"default_dividends_per_year"`

	// DefaultRiskFreeRate is used when a request or book entry omits it
	DefaultRiskFreeRate float64 `json:"default_risk_free_rate"`

	// Workers splits wide lattice slices across goroutines (1 = sequential)
	Workers int `json:"workers"`

	// ParallelThreshold is the narrowest slice split across workers
	ParallelThreshold int `json:"parallel_threshold"`
}

// BookConfig contains book valuation settings
type BookConfig struct {
	// Workers bounds how many positions are priced at once
	Workers int `json:"workers"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (cli, json, markdown)
	DefaultFormat string `json:"default_format"`

	// Precision is the number of decimals shown for prices
	Precision int32 `json:"precision"`

	// Currency is the default currency for book positions
	Currency string `json:"currency"`

	// NoColor disables ANSI colors in cli output
	NoColor bool `json:"no_color"`
}

// ScheduleConfig contains scheduled revaluation settings
type ScheduleConfig struct {
	// Cron is a six-field (with seconds) cron spec
	Cron string `json:"cron"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// MaxSteps caps steps accepted over HTTP
	MaxSteps int `json:"max_steps"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Lattice: LatticeConfig{
			DefaultSteps:            100,
			DefaultDividendsPerYear: 4,
			DefaultRiskFreeRate:     0.05,
			Workers:                 1,
			ParallelThreshold:       512,
		},
		Book: BookConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			Precision:     6,
			Currency:      "USD",
		},
		Schedule: ScheduleConfig{
			Cron: "0 */15 * * * *",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			MaxSteps: 5000,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, falling back to defaults when it does not exist
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.Lattice.DefaultSteps <= 0 {
		return fmt.Errorf("lattice.default_steps must be positive")
	}
	if c.Lattice.DefaultDividendsPerYear <= 0 {
		return fmt.Errorf("lattice.default_dividends_per_year must be positive")
	}
	if c.Lattice.Workers <= 0 {
		return fmt.Errorf("lattice.workers must be positive")
	}
	if c.Lattice.ParallelThreshold <= 0 {
		return fmt.Errorf("lattice.parallel_threshold must be positive")
	}
	if c.Server.MaxSteps <= 0 {
		return fmt.Errorf("server.max_steps must be positive")
	}
	if c.Book.Workers <= 0 {
		return fmt.Errorf("book.workers must be positive")
	}
	switch c.Output.DefaultFormat {
	case "cli", "json", "markdown":
	default:
		return fmt.Errorf("output.default_format %q is not one of cli, json, markdown", c.Output.DefaultFormat)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 12 {
		return fmt.Errorf("output.precision must be between 0 and 12")
	}
	if c.Schedule.Cron != "" {
		if err := schedule.ValidateSpec(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}

// BookDefaults returns the values book entries fall back to
func (c *Config) BookDefaults() book.Defaults {
	return book.Defaults{
		Steps:            c.Lattice.DefaultSteps,
		DividendsPerYear: c.Lattice.DefaultDividendsPerYear,
		RiskFreeRate:     c.Lattice.DefaultRiskFreeRate,
		Currency:         c.Output.Currency,
	}
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
