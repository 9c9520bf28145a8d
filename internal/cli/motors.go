// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var motorsCmd = &cobra.Command{
	Use:   "motors",
	Short: "List fleet devices and their last known positions",
	Args:  cobra.NoArgs,
	RunE:  runMotors,
}

var (
	locationLat float64
	locationLng float64
)

var locationCmd = &cobra.Command{
	Use:   "location <device-id> --lat <lat> --lng <lng>",
	Short: "Set a device position by hand",
	Long: `Records an operator-supplied position for a device. Coordinates outside
the configured service area mark the device offline.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocation,
}

func init() {
	locationCmd.Flags().Float64Var(&locationLat, "lat", 0, "latitude")
	locationCmd.Flags().Float64Var(&locationLng, "lng", 0, "longitude")
	_ = locationCmd.MarkFlagRequired("lat")
	_ = locationCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(motorsCmd)
	rootCmd.AddCommand(locationCmd)
}

func runMotors(cmd *cobra.Command, _ []string) error {
	motors, err := apiClient.Motors(cmd.Context())
	if err != nil {
		return fmt.Errorf("list motors: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, motors)
	}
	if len(motors) == 0 {
		cmd.Println("No devices.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tGPS\tPOSITION\tAGE")
	for _, m := range motors {
		position := "-"
		if m.Lat != nil && m.Lng != nil {
			position = fmt.Sprintf("%.6f,%.6f", *m.Lat, *m.Lng)
		}
		age := "never"
		if m.LastUpdateAge != nil {
			age = fmt.Sprintf("%ds", *m.LastUpdateAge)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Status, m.GPSStatus, position, age)
	}
	return tw.Flush()
}

func runLocation(cmd *cobra.Command, args []string) error {
	id, err := parseDeviceID(args[0])
	if err != nil {
		return err
	}
	device, err := apiClient.UpdateLocation(cmd.Context(), id, locationLat, locationLng)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, device)
	}
	cmd.Printf("Device %d (%s) is now %s\n", device.ID, device.Name, device.GPSStatus)
	return nil
}
