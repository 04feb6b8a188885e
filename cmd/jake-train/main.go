// Package main provides the training entry point run inside a job container.
package main

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/jaketune/internal/cli"
)

func main() {
	if err := cli.ExecuteTrain(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
