// Package main provides the CLI for the ratetable country comparison editor.
package main

import (
	"os"

	"github.com/leapstack-labs/ratetable/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
