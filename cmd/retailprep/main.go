// Package main is the entry point for the retailprep CLI.
package main

import (
	"os"

	"github.com/jmylchreest/retailprep/cmd/retailprep/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
