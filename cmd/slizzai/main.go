// Command slizzai runs eco-budgeted render cycles from the command line.
//
// A cycle is described by a YAML file: frame geometry, tile count, the
// cycle's resource budget, and the super-sampling endpoint. The command
// writes the assembled frame as PNG and the coverage report as JSON, so
// a follow-up invocation can re-run just the missing tiles.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slizzai:", err)
		os.Exit(1)
	}
}
