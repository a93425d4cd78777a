package main

import (
	"fmt"
	"os"

	"github.com/teranos/pbts/cmd/pbts/commands"
	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
)

func main() {
	err := commands.RootCmd.Execute()
	logger.Cleanup()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(commands.ExitCode(err))
}
