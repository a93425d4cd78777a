package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pbts/display"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen"
)

// CheckCmd checks if generated TypeScript is up to date
var CheckCmd = &cobra.Command{
	Use:   "check [descriptor-set...]",
	Short: "Check if generated TypeScript is up to date",
	Long: `Generate in memory and compare the result with the output directory.

Differences are printed as unified diffs. Generated files that the schema no
longer produces are reported as stale.

Exit codes:
  0 - Output is up to date
  1 - Output is out of date (diff shown)
  2 - Error during check

Examples:
  pbts check build/api.pb -o web/src/gen`,
	RunE: runCheck,
}

func init() {
	addGenerationFlags(CheckCmd.Flags())
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, inputs, opts, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	g, err := schema.LoadFiles(inputs...)
	if err != nil {
		return err
	}
	res, err := typegen.Emit(cmd.Context(), g, opts)
	if err != nil {
		return err
	}

	result, err := typegen.Check(res, cfg.Output)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		return result.Err()
	}
	if result.UpToDate {
		pterm.Success.Printfln("%s is up to date", cfg.Output)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, diff := range result.Differences {
		switch {
		case diff.Missing:
			pterm.Warning.Printfln("%s is missing", diff.Path)
		case diff.Stale:
			pterm.Warning.Printfln("%s is no longer generated", diff.Path)
		default:
			pterm.Warning.Printfln("%s differs", diff.Path)
		}
		fmt.Fprint(out, diff.Diff)
	}
	return result.Err()
}
