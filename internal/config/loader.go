package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config file locations.
const (
	// GlobalConfigDir is the per-user directory under $XDG_CONFIG_HOME.
	GlobalConfigDir = "okline"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// ProjectConfigDir sits at the project root next to the data file.
	ProjectConfigDir = ".okline"
	// ProjectConfigFile is the project config file name.
	ProjectConfigFile = "config.yaml"
)

// source is one config file layered over the defaults.
type source struct {
	name     string
	path     string
	required bool
}

// LoadConfig builds the configuration. Layers, later winning:
//
//  1. Default()
//  2. $XDG_CONFIG_HOME/okline/config.yaml
//  3. .okline/config.yaml at the project root
//  4. the file named by --config or OKLINE_CONFIG, which must exist
//  5. OKLINE_* environment variables and bound flags, read through v
//
// Durations accept Go syntax ("800ms", "1m30s") or a bare number of
// seconds. The result is validated.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := Default()

	defaults, err := settingsOf(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, err
	}

	for _, src := range sources(v) {
		if err := mergeFile(v, src); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg, decodeHooks()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// sources lists the config files to merge, lowest precedence first.
func sources(v *viper.Viper) []source {
	var out []source
	if p := globalConfigPath(); p != "" {
		out = append(out, source{name: "global", path: p})
	}
	project := filepath.Join(FindProjectRoot(""), ProjectConfigDir, ProjectConfigFile)
	out = append(out, source{name: "project", path: project})
	if p := v.GetString("config"); p != "" {
		out = append(out, source{name: "explicit", path: p, required: true})
	}
	return out
}

// globalConfigPath returns the per-user config path, or "" when no home
// directory can be determined.
func globalConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, GlobalConfigDir, GlobalConfigFile)
}

// mergeFile reads a YAML file into its own viper and merges the settings
// into v. Optional files that do not exist are skipped.
func mergeFile(v *viper.Viper, src source) error {
	f, err := os.Open(src.path)
	if os.IsNotExist(err) && !src.required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s config: %w", src.name, err)
	}
	defer func() { _ = f.Close() }()

	fv := viper.New()
	fv.SetConfigType("yaml")
	if err := fv.ReadConfig(f); err != nil {
		return fmt.Errorf("read %s config %s: %w", src.name, src.path, err)
	}
	return v.MergeConfigMap(fv.AllSettings())
}

// decodeHooks turns strings and bare seconds into durations for
// storage.save_debounce and webdav.timeout.
func decodeHooks() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
}

// secondsToDurationHook reads a bare number, from YAML or an env var, as
// seconds.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		switch n := data.(type) {
		case int:
			return time.Duration(n) * time.Second, nil
		case int64:
			return time.Duration(n) * time.Second, nil
		case float64:
			return time.Duration(n * float64(time.Second)), nil
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return time.Duration(f * float64(time.Second)), nil
			}
		}
		return data, nil
	}
}

// settingsOf flattens cfg into the nested map viper merges, writing
// durations in Go syntax so they round-trip through the string hook.
func settingsOf(cfg *Config) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &out,
		DecodeHook: func(from, to reflect.Type, data interface{}) (interface{}, error) {
			if d, ok := data.(time.Duration); ok {
				return d.String(), nil
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
	return out, nil
}
