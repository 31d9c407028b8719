package main

import (
	"os"

	"github.com/microcap/papertrade/cmd/papertrade/commands"
)

// main is the entry point for the papertrade CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
