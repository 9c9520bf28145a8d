// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [device-id]",
	Short: "Sync device locations from the GPS provider",
	Long: `Triggers a location sync on the server.
With a device ID only that device is synced, whether or not it is due.
Otherwise every eligible device is synced in one pass.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		id, err := parseDeviceID(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Syncing device %d...\n", id)
		result, err := apiClient.SyncOne(ctx, id)
		if err != nil {
			if reason, ok := errorDetail(err); ok {
				return fmt.Errorf("sync failed: %w (reason: %s)", err, reason)
			}
			return fmt.Errorf("sync failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, result)
		}
		cmd.Printf("Device %d: %s", result.DeviceID, result.GPSStatus)
		if result.Lat != nil && result.Lng != nil {
			cmd.Printf(" at %.6f,%.6f", *result.Lat, *result.Lng)
		}
		if result.Cached {
			cmd.Print(" (cached)")
		}
		cmd.Println()
		return nil
	}

	cmd.Println("Syncing all devices...")
	run, err := apiClient.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, run)
	}
	cmd.Printf("Synced %d/%d devices (%d failed) in %dms\n", run.Success, run.Total, run.Failed, run.DurationMS)
	for _, e := range run.Errors {
		cmd.Printf("  - %s\n", e)
	}
	return nil
}

func parseDeviceID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid device id %q: must be a positive integer", s)
	}
	return id, nil
}
