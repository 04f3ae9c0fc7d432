// Package config provides configuration types and defaults for phasegraph.
package config

import (
	"fmt"
	"time"

	"github.com/npratt/phasegraph/internal/layout"
)

// Config holds all configuration for phasegraph.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Canvas      layout.Metrics    `yaml:"canvas" mapstructure:"canvas"` // Terminal canvas metrics, in cells

	// ProjectRoot is set by LoadConfig; relative paths were resolved against it.
	ProjectRoot string `yaml:"-" mapstructure:"-"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver  string        `yaml:"driver" mapstructure:"driver"` // sqlite, badger, memory, or remote
	Path    string        `yaml:"path" mapstructure:"path"`     // Database file (sqlite) or directory (badger); empty picks the driver default
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PathsConfig holds file paths for logs, the store socket, and the pid file.
type PathsConfig struct {
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
	PID    string `yaml:"pid" mapstructure:"pid"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// ServerConfig holds settings for `phasegraph serve`.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" mapstructure:"http_addr"` // Empty disables the REST API
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

var validDrivers = map[string]bool{
	"sqlite": true,
	"badger": true,
	"memory": true,
	"remote": true,
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:  "sqlite",
			Timeout: 10 * time.Second,
		},
		Paths: PathsConfig{
			Log:    ".phasegraph/phasegraph.log",
			Socket: ".phasegraph/phasegraph.sock",
			PID:    ".phasegraph/phasegraph.pid",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Server: ServerConfig{
			HTTPAddr:        "",
			ShutdownTimeout: 10 * time.Second,
		},
		Canvas: layout.CellMetrics(),
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("store.driver %q: must be one of sqlite, badger, memory, remote", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive, got %v", c.Store.Timeout)
	}
	if c.Canvas.NodeWidth < 8 || c.Canvas.NodeHeight < 3 {
		return fmt.Errorf("canvas node size %vx%v is too small (min 8x3)", c.Canvas.NodeWidth, c.Canvas.NodeHeight)
	}
	if c.Canvas.PhaseGap < 0 || c.Canvas.VerticalGap < 0 || c.Canvas.Padding < 0 {
		return fmt.Errorf("canvas gaps and padding must not be negative")
	}
	return nil
}
