// Package commands implements the pbts command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/pbts/config"
	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
)

// Exit codes
const (
	ExitOK        = 0
	ExitOutOfDate = 1 // pbts check found differences
	ExitFailure   = 2
)

var (
	configPath string
	jsonLogs   bool
	verbosity  int

	// activeConfig is loaded once per invocation by the root pre-run hook
	activeConfig *config.Config
)

// RootCmd is the pbts command
var RootCmd = &cobra.Command{
	Use:   "pbts",
	Short: "Generate TypeScript from protobuf descriptor sets",
	Long: `pbts turns compiled protobuf schemas into TypeScript modules: one file per
.proto file with interfaces, message classes with decode/create, enums and
service clients, plus per-namespace index files and reflection metadata.

Input is a binary FileDescriptorSet produced by protoc:

  protoc --include_imports -o build/api.pb api/*.proto

Available commands:
  generate - Generate TypeScript into an output directory
  check    - Verify that an output directory is up to date
  init     - Write a default pbts.toml
  version  - Show version information

Examples:
  pbts generate build/api.pb -o web/src/gen
  pbts generate build/api.pb -o web/src/gen --naming kebab --watch
  pbts check build/api.pb -o web/src/gen`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init must work even when the current pbts.toml is broken
		if cmd.Name() != "init" && cmd.Name() != "version" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			activeConfig = cfg
		}

		json, level := jsonLogs, verbosity
		if activeConfig != nil {
			if !cmd.Flags().Changed("json") {
				json = activeConfig.Log.JSON
			}
			level = max(level, activeConfig.Log.Verbosity)
		}
		if err := logger.Initialize(json, level); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Debugw("Logger initialized", "level", logger.LevelName(level))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: nearest pbts.toml)")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Emit logs as JSON")
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	RootCmd.AddCommand(GenerateCmd)
	RootCmd.AddCommand(CheckCmd)
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(VersionCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errors.ErrOutOfDate):
		return ExitOutOfDate
	default:
		return ExitFailure
	}
}
