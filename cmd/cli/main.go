// Package main is the entry point for the vacuum-landscape CLI.
package main

import (
	"os"

	"vacuum-landscape/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
