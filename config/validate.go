package config

import (
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/typegen/util"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := util.ParseNaming(c.Naming); err != nil {
		return errors.Wrap(err, "invalid naming")
	}

	// Parallelism: 0 = one worker per CPU, negative = invalid
	if c.Parallelism < 0 {
		return errors.Newf("parallelism must be >= 0, got %d", c.Parallelism)
	}

	if c.RuntimeModule == "" {
		return errors.New("runtime_module cannot be empty")
	}
	if c.CoreModule == "" {
		return errors.New("core_module cannot be empty")
	}

	if c.MinProtocVersion != "" {
		if _, err := semver.NewConstraint(c.MinProtocVersion); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "min_protoc_version %q is not a version constraint", c.MinProtocVersion),
				"use a constraint such as \">= 3.15\"")
		}
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	// Watch debounce: 0 = regenerate on every event, negative = invalid
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}

	return nil
}
