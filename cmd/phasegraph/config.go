package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/phasegraph/internal/config"
)

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagStore      = "store"
	FlagDB         = "db"
	FlagSocketPath = "socket-path"
	FlagLogFile    = "log-file"

	// Serve command flags
	FlagHTTPAddr = "http-addr"
	FlagDetach   = "detach"

	// Add command flags
	FlagName     = "name"
	FlagPhase    = "phase"
	FlagParent   = "parent"
	FlagCategory = "category"

	// Delete command flags
	FlagYes = "yes"

	// Export command flags
	FlagFormat = "format"
	FlagOut    = "out"

	// Output format flags
	FlagJSON = "json"
)

// flagKeys maps flags onto the config keys they override, so LoadConfig picks
// them up with flag precedence.
var flagKeys = map[string]string{
	FlagStore:      "store.driver",
	FlagDB:         "store.path",
	FlagSocketPath: "paths.socket",
	FlagLogFile:    "paths.log",
	FlagHTTPAddr:   "server.http_addr",
}

// bindFlags binds every flag in fs to v, under its config key when it has one.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})
}

// loadConfig loads the layered config for the project around a.workDir.
// Paths in the result are absolute.
func (a *app) loadConfig() (*config.Config, string, error) {
	cfg, err := config.LoadConfig(a.v, a.workDir)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, cfg.ProjectRoot, nil
}
