package typegen

import (
	"runtime"

	"github.com/teranos/pbts/typegen/util"
)

const (
	// DefaultRuntimeModule provides the Reader and the metadata Root.
	DefaultRuntimeModule = "protobufjs"
	// DefaultCoreModule provides the message and client base classes.
	DefaultCoreModule = "@sisyphus.js/core"
)

// Options controls a generation run.
type Options struct {
	// Naming is applied to output file base names
	Naming util.Naming

	// EmitIndex writes one index.ts per namespace directory
	EmitIndex bool

	// EmitReflection writes reflection.json and its _reflection.ts loader
	EmitReflection bool

	// StrictDecode makes decode throw on unknown field numbers instead of skipping them
	StrictDecode bool

	// FailFast stops the run at the first failed file
	FailFast bool

	// Parallelism bounds the number of files emitted at once; 0 means GOMAXPROCS
	Parallelism int

	RuntimeModule string
	CoreModule    string

	// Files restricts output to these schema files; empty means every file
	Files []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Naming:         util.NamingPreserve,
		EmitIndex:      true,
		EmitReflection: true,
		RuntimeModule:  DefaultRuntimeModule,
		CoreModule:     DefaultCoreModule,
	}
}

// normalized fills zero values with their defaults.
func (o Options) normalized() Options {
	if o.Naming == "" {
		o.Naming = util.NamingPreserve
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.RuntimeModule == "" {
		o.RuntimeModule = DefaultRuntimeModule
	}
	if o.CoreModule == "" {
		o.CoreModule = DefaultCoreModule
	}
	return o
}
