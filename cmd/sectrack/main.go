package main

import (
	"os"

	"github.com/wonny/sectrack/cmd/sectrack/commands"
)

// main is the entry point for the sectrack CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
