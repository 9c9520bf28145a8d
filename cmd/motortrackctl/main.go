// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Command motortrackctl operates a Motortrack server from the shell.
package main

import (
	"os"

	"github.com/tomtom215/motortrack/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
