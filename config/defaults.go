package config

import (
	"github.com/spf13/viper"

	"github.com/teranos/pbts/typegen"
)

const (
	// ProjectFileName is the project config file searched for upward from the working directory
	ProjectFileName = "pbts.toml"

	// EnvPrefix prefixes environment overrides, e.g. PBTS_NAMING or PBTS_LOG_JSON
	EnvPrefix = "PBTS"

	DefaultOutput     = "gen"
	DefaultDebounceMS = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("inputs", []string{})
	v.SetDefault("files", []string{})

	v.SetDefault("naming", "preserve")
	v.SetDefault("emit_index", true)
	v.SetDefault("emit_reflection", true)
	v.SetDefault("strict_decode", false) // unknown field numbers are skipped
	v.SetDefault("fail_fast", false)
	v.SetDefault("parallelism", 0)

	v.SetDefault("runtime_module", typegen.DefaultRuntimeModule)
	v.SetDefault("core_module", typegen.DefaultCoreModule)
	v.SetDefault("min_protoc_version", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}

// Default returns the configuration built from defaults alone.
func Default() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return LoadWithViper(v)
}
