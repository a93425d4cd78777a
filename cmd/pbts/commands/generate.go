package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teranos/pbts/config"
	"github.com/teranos/pbts/display"
	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/internal/watch"
	"github.com/teranos/pbts/logger"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen"
)

var generateWatch bool

// GenerateCmd generates TypeScript from descriptor sets
var GenerateCmd = &cobra.Command{
	Use:   "generate [descriptor-set...]",
	Short: "Generate TypeScript into an output directory",
	Long: `Load one or more binary FileDescriptorSets and write one TypeScript module
per .proto file under the output directory, plus index files and reflection
metadata.

Descriptor sets default to the inputs listed in pbts.toml. Files that fail to
generate are reported; the rest are still written unless --fail-fast is set.

Examples:
  pbts generate build/api.pb -o web/src/gen
  pbts generate build/api.pb --files api/user.proto --strict
  pbts generate --watch                # regenerate when the inputs change`,
	RunE: runGenerate,
}

func init() {
	addGenerationFlags(GenerateCmd.Flags())
	GenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate when the descriptor sets change")
}

// addGenerationFlags registers the flags shared by generate and check.
func addGenerationFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", "", "Output root directory")
	flags.String("naming", "", "Output file naming: preserve, snake, kebab, camel, pascal")
	flags.Bool("index", true, "Write index.ts files per namespace")
	flags.Bool("reflection", true, "Write reflection.json and _reflection.ts")
	flags.Bool("strict", false, "Throw on unknown fields when decoding")
	flags.Bool("fail-fast", false, "Stop at the first failed file")
	flags.Int("parallelism", 0, "Files generated at once (0 = one per CPU)")
	flags.StringSlice("files", nil, "Only generate these .proto files")
	flags.String("runtime-module", "", "Module providing the protobuf runtime")
	flags.String("core-module", "", "Module providing the message and client base classes")
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	set("output", func() (e error) { cfg.Output, e = flags.GetString("output"); return })
	set("naming", func() (e error) { cfg.Naming, e = flags.GetString("naming"); return })
	set("index", func() (e error) { cfg.EmitIndex, e = flags.GetBool("index"); return })
	set("reflection", func() (e error) { cfg.EmitReflection, e = flags.GetBool("reflection"); return })
	set("strict", func() (e error) { cfg.StrictDecode, e = flags.GetBool("strict"); return })
	set("fail-fast", func() (e error) { cfg.FailFast, e = flags.GetBool("fail-fast"); return })
	set("parallelism", func() (e error) { cfg.Parallelism, e = flags.GetInt("parallelism"); return })
	set("files", func() (e error) { cfg.Files, e = flags.GetStringSlice("files"); return })
	set("runtime-module", func() (e error) { cfg.RuntimeModule, e = flags.GetString("runtime-module"); return })
	set("core-module", func() (e error) { cfg.CoreModule, e = flags.GetString("core-module"); return })
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// prepare merges flags into the active config and resolves the inputs.
func prepare(cmd *cobra.Command, args []string) (*config.Config, []string, typegen.Options, error) {
	cfg := *activeConfig
	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return nil, nil, typegen.Options{}, err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = cfg.Inputs
	}
	if len(inputs) == 0 {
		return nil, nil, typegen.Options{}, errors.WithHint(
			errors.New("no descriptor sets given"),
			"pass a file built with protoc --include_imports -o set.pb, or list it under inputs in pbts.toml")
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, typegen.Options{}, err
	}
	return &cfg, inputs, opts, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, inputs, opts, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		start := time.Now()
		g, err := schema.LoadFiles(inputs...)
		if err != nil {
			return err
		}
		res, err := typegen.Generate(ctx, cfg.Output, g, opts)
		if res != nil {
			if printErr := printSummary(cmd, cfg.Output, res, time.Since(start)); printErr != nil {
				return printErr
			}
		}
		return err
	}

	if !generateWatch {
		return run(ctx)
	}

	if err := run(ctx); err != nil {
		pterm.Error.Println(err.Error())
	}
	w, err := watch.New(inputs, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Watching %d descriptor sets (Ctrl+C to stop)", len(inputs))
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		logger.Infow("Descriptor sets changed", logger.FieldCount, len(changed))
		return run(ctx)
	})
}

// generateSummary is the --json form of a generation run
type generateSummary struct {
	Output     string   `json:"output"`
	Written    []string `json:"written"`
	Unchanged  []string `json:"unchanged"`
	Failed     []string `json:"failed"`
	DurationMS int64    `json:"duration_ms"`
}

// printSummary reports a generation run on the terminal.
func printSummary(cmd *cobra.Command, output string, res *typegen.Result, elapsed time.Duration) error {
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), generateSummary{
			Output:     output,
			Written:    res.Written,
			Unchanged:  res.Unchanged,
			Failed:     res.Failed,
			DurationMS: elapsed.Milliseconds(),
		})
	}

	if len(res.Failed) > 0 {
		pterm.Error.Printfln("%d files failed", len(res.Failed))
		for _, name := range res.Failed {
			pterm.Printfln("  - %s", name)
		}
	}

	data := pterm.TableData{
		{"Written", "Unchanged", "Failed", "Time"},
		{
			pterm.Sprint(len(res.Written)),
			pterm.Sprint(len(res.Unchanged)),
			pterm.Sprint(len(res.Failed)),
			elapsed.Round(time.Millisecond).String(),
		},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if len(res.Failed) == 0 {
		pterm.Success.Printfln("Generated %d files in %s", len(res.Files), output)
	}
	return nil
}
