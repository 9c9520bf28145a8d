// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/motortrack/internal/models"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Aliases: []string{"status"},
	Short:   "Show server health",
	Long: `Shows database, provider and token state plus sync timing.
Exits non-zero when the server reports unhealthy.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	status, err := apiClient.Health(cmd.Context())
	if status == nil {
		return err
	}
	if jsonOutput {
		if perr := printJSON(cmd, status); perr != nil {
			return perr
		}
		return err
	}

	cmd.Printf("Status:          %s\n", status.Status)
	if status.Version != "" {
		cmd.Printf("Version:         %s\n", status.Version)
	}
	cmd.Printf("Database:        %s\n", yesNo(status.DatabaseConnected, "connected", "unreachable"))
	cmd.Printf("Provider API:    %s (breaker %s)\n", yesNo(status.APIAccessible, "accessible", "inaccessible"), status.CircuitBreaker)
	cmd.Printf("Token:           %s\n", yesNo(status.TokenValid, "valid", "missing or expired"))
	if status.LastSync != nil {
		cmd.Printf("Last sync:       %s\n", status.LastSync.Local().Format(time.RFC3339))
	} else {
		cmd.Println("Last sync:       never")
	}
	cmd.Printf("Next sync in:    %s\n", (time.Duration(status.NextSyncInSeconds * float64(time.Second))).Round(time.Second))
	if status.ConsecutiveFailures > 0 {
		cmd.Printf("Failed passes:   %d in a row\n", status.ConsecutiveFailures)
	}

	if status.Status == models.HealthUnhealthy {
		return err
	}
	return nil
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
