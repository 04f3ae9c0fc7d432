package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config file locations. The project file is looked up under the project
// root, so every subdirectory of a project shares it.
const (
	GlobalConfigDir  = "phasegraph"
	ProjectConfigDir = ".phasegraph"
	ConfigFileName   = "config.yaml"
)

// LoadConfig builds the configuration for the project containing workDir
// (the current directory when empty). Layers, lowest first:
//
//  1. Default()
//  2. $XDG_CONFIG_HOME/phasegraph/config.yaml
//  3. <project>/.phasegraph/config.yaml
//  4. the file named by the "config" key (--config), which must exist
//  5. values already set on v: PHASEGRAPH_* env and bound flags
//
// The result is validated, store.path gets its per-driver default, and every
// relative path is resolved against ProjectRoot.
func LoadConfig(v *viper.Viper, workDir string) (*Config, error) {
	root := FindProjectRoot(workDir)

	defaults, err := settingsOf(Default())
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	if err := mergeFile(v, globalFile(), false); err != nil {
		return nil, err
	}
	if err := mergeFile(v, ProjectFile(root), false); err != nil {
		return nil, err
	}
	if explicit := v.GetString("config"); explicit != "" {
		if err := mergeFile(v, explicit, true); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.resolve(root)
	return cfg, nil
}

// ProjectFile is the project config file for root.
func ProjectFile(root string) string {
	return filepath.Join(root, ProjectConfigDir, ConfigFileName)
}

// globalFile is the per-user config file, under ~/.config when
// XDG_CONFIG_HOME is unset. Empty when no home directory is known.
func globalFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, GlobalConfigDir, ConfigFileName)
}

// mergeFile layers a YAML file over v. A missing file is skipped unless
// required.
func mergeFile(v *viper.Viper, path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// settingsOf turns cfg into the nested map viper merges. Durations become
// strings so defaults decode through the same hook as file values.
func settingsOf(cfg *Config) (map[string]any, error) {
	settings := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &settings,
		DecodeHook: func(from, _ reflect.Type, data any) (any, error) {
			if from == reflect.TypeOf(time.Duration(0)) {
				return data.(time.Duration).String(), nil
			}
			return data, nil
		},
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return settings, nil
}
