// Package main is the entry point for the displayquote CLI.
package main

import (
	"os"

	"github.com/Simplici0/displayquote/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
