// Package config loads simtool's settings from, in increasing priority:
// built-in defaults, an optional config file, and SIMTOOL_-prefixed
// environment variables. Each layer is a koanf provider stacked onto the
// same *koanf.Koanf instance, the idiom koanf's own docs demonstrate.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jmylchreest/simtool/internal/simcore"
)

// Settings is the resolved configuration simtool's driver consumes.
type Settings struct {
	MinRunSize           int      `koanf:"min_run_size"`
	ThresholdPercentage  int      `koanf:"threshold_percentage"`
	SeparateEach         bool     `koanf:"separate_each"`
	NoSelf               bool     `koanf:"no_self"`
	NewVsOld             bool     `koanf:"new_vs_old"`
	MainContributorOnly  bool     `koanf:"main_contributor_only"`
	IgnoreFile           string   `koanf:"ignore_file"`
	Languages            []string `koanf:"languages"`
	WatchDebounceSeconds int      `koanf:"watch_debounce_seconds"`
}

// defaults mirrors simcore's own defaults, so a config file only needs to
// name the fields it wants to override.
var defaults = map[string]any{
	"min_run_size":           simcore.DefaultMinRunSize,
	"threshold_percentage":   10,
	"separate_each":          false,
	"no_self":                false,
	"new_vs_old":             false,
	"main_contributor_only":  false,
	"ignore_file":            ".simignore",
	"watch_debounce_seconds": 2,
}

// Load resolves Settings from defaults, an optional JSON file at
// configPath (skipped silently if empty or absent), and environment
// variables prefixed SIMTOOL_ (e.g. SIMTOOL_MIN_RUN_SIZE=40).
func Load(configPath string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), json.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: "SIMTOOL_",
		TransformFunc: func(k, v string) (string, any) {
			// Settings is flat, so the env key must land on the same
			// underscored name confmap/file use ("min_run_size"), not a
			// dot-nested one the "." delimiter would otherwise suggest.
			key := strings.ToLower(strings.TrimPrefix(k, "SIMTOOL_"))
			return key, v
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &s, nil
}

// ToCoreConfig projects the driver-level Settings down to the fields
// simcore.Config actually understands.
func (s *Settings) ToCoreConfig() simcore.Config {
	return simcore.Config{
		MinRunSize:           s.MinRunSize,
		ThresholdPercentage:  s.ThresholdPercentage,
		SeparateEach:         s.SeparateEach,
		NoSelf:               s.NoSelf,
		NewVsOld:             s.NewVsOld,
		MainContributorOnly:  s.MainContributorOnly,
	}
}
