// Package config loads pbts settings from pbts.toml files, PBTS_ environment
// variables and command-line overrides.
package config

import (
	"fmt"

	"github.com/teranos/pbts/typegen"
	"github.com/teranos/pbts/typegen/util"
)

// Config represents the pbts configuration
type Config struct {
	// Output is the output root directory for generated files
	Output string `mapstructure:"output" toml:"output"`

	// Inputs lists descriptor set files used when none are given on the command line
	Inputs []string `mapstructure:"inputs" toml:"inputs"`

	// Files restricts generation to these schema files (empty = all)
	Files []string `mapstructure:"files" toml:"files"`

	Naming         string `mapstructure:"naming" toml:"naming"` // preserve, snake, kebab, camel, pascal
	EmitIndex      bool   `mapstructure:"emit_index" toml:"emit_index"`
	EmitReflection bool   `mapstructure:"emit_reflection" toml:"emit_reflection"`
	StrictDecode   bool   `mapstructure:"strict_decode" toml:"strict_decode"`
	FailFast       bool   `mapstructure:"fail_fast" toml:"fail_fast"`
	Parallelism    int    `mapstructure:"parallelism" toml:"parallelism"` // 0 = one per CPU

	RuntimeModule string `mapstructure:"runtime_module" toml:"runtime_module"`
	CoreModule    string `mapstructure:"core_module" toml:"core_module"`

	// MinProtocVersion is a semver constraint checked by the protoc plugin, e.g. ">= 3.15"
	MinProtocVersion string `mapstructure:"min_protoc_version" toml:"min_protoc_version"`

	Log   LogConfig   `mapstructure:"log" toml:"log"`
	Watch WatchConfig `mapstructure:"watch" toml:"watch"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity"` // 0 warn, 1 info, 2+ debug
}

// WatchConfig configures --watch regeneration
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms"`
}

// Options converts the configuration to generation options.
func (c *Config) Options() (typegen.Options, error) {
	naming, err := util.ParseNaming(c.Naming)
	if err != nil {
		return typegen.Options{}, err
	}
	return typegen.Options{
		Naming:         naming,
		EmitIndex:      c.EmitIndex,
		EmitReflection: c.EmitReflection,
		StrictDecode:   c.StrictDecode,
		FailFast:       c.FailFast,
		Parallelism:    c.Parallelism,
		RuntimeModule:  c.RuntimeModule,
		CoreModule:     c.CoreModule,
		Files:          c.Files,
	}, nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Output: %s, Naming: %s, Index: %t, Strict: %t, Parallelism: %d}",
		c.Output, c.Naming, c.EmitIndex, c.StrictDecode, c.Parallelism)
}
