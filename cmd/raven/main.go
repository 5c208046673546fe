// Command raven is the CLI entry point: it delegates entirely to
// internal/cli, which owns command registration, flag parsing, and exit
// code policy.
package main

import (
	"os"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
