package config

import (
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/pbts/errors"
)

// parameterKeys maps protoc plugin parameter names to config keys.
var parameterKeys = map[string]string{
	"naming":             "naming",
	"index":              "emit_index",
	"emit_index":         "emit_index",
	"reflection":         "emit_reflection",
	"emit_reflection":    "emit_reflection",
	"strict":             "strict_decode",
	"strict_decode":      "strict_decode",
	"fail_fast":          "fail_fast",
	"parallelism":        "parallelism",
	"runtime_module":     "runtime_module",
	"core_module":        "core_module",
	"min_protoc_version": "min_protoc_version",
}

// FromParameter builds the configuration for a protoc plugin run from its
// comma separated key=value parameter, e.g. "naming=kebab,index=true".
// A key without a value sets a boolean to true. PBTS_ environment variables
// apply below the parameter.
func FromParameter(param string) (*Config, error) {
	v := newViper()

	for _, pair := range strings.Split(param, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, hasValue := strings.Cut(pair, "=")
		key, ok := parameterKeys[strings.TrimSpace(name)]
		if !ok {
			return nil, errors.WithHintf(
				errors.Newf("unknown parameter %q", name),
				"known parameters: %s", strings.Join(parameterNames(), ", "))
		}
		if !hasValue {
			value = "true"
		}
		v.Set(key, strings.TrimSpace(value))
	}

	cfg, err := loadParameters(v)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid plugin parameter %q", param)
	}
	return cfg, nil
}

func loadParameters(v *viper.Viper) (*Config, error) {
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parameterNames() []string {
	names := make([]string, 0, len(parameterKeys))
	for name := range parameterKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
