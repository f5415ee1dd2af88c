// Package main provides the eachof CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/eachof/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
