// Package main is the entry point for the option-lattice CLI.
package main

import (
	"os"

	"option-lattice/cmd/cli/cmd"
	"option-lattice/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
