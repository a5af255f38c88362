// Package main provides the entry point for the fileseek CLI.
package main

import (
	"os"

	"github.com/fileseek/fileseek/cmd/fileseek/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
