// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"errors"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8080"

var (
	// apiClient is built from the persistent flags before each command.
	// Tests replace it with a mock.
	apiClient APIClient

	serverURL  string
	timeout    time.Duration
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "motortrackctl",
	Short: "Operate a Motortrack server",
	Long: `motortrackctl drives a running Motortrack server over its REST API:
trigger syncs, list fleet positions, correct a location by hand and manage
the cached provider token.

The server URL comes from --server or MOTORTRACK_URL.`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
}

func init() {
	defaultURL := os.Getenv("MOTORTRACK_URL")
	if defaultURL == "" {
		defaultURL = defaultServerURL
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "Motortrack server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout; a full sync can take minutes")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
}

// connect builds the HTTP client unless one was injected.
func connect(_ *cobra.Command, _ []string) error {
	if apiClient != nil {
		return nil
	}
	c, err := NewHTTPClient(serverURL, timeout)
	if err != nil {
		return err
	}
	apiClient = c
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// printJSON writes v indented to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// errorDetail returns the server's reason for a failed device sync, if any.
func errorDetail(err error) (string, bool) {
	var rerr *RemoteError
	if !errors.As(err, &rerr) || rerr.Details == nil {
		return "", false
	}
	reason, ok := rerr.Details["reason"].(string)
	return reason, ok
}
