package commands

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pbts/config"
)

// InitCmd writes a default pbts.toml
var InitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default pbts.toml",
	Long: `Write pbts.toml with every setting at its default value into dir (default:
the current directory). An existing file is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, config.ProjectFileName)
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", path)
		return nil
	},
}
