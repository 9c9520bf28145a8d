// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	auditType   string
	auditDevice int64
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent operator actions",
	Long: `Lists manual syncs, manual location updates and token refresh/clear
actions recorded by the server, newest first.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditType, "type", "", "only this event type, e.g. token.clear")
	auditCmd.Flags().Int64Var(&auditDevice, "device", 0, "only actions on this device id")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 0, "maximum entries (server default 100)")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	events, err := apiClient.AuditEvents(cmd.Context(), auditType, auditDevice, auditLimit)
	if err != nil {
		return fmt.Errorf("list audit events: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, events)
	}
	if len(events) == 0 {
		cmd.Println("No audit events.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tOUTCOME\tDEVICE\tSOURCE\tDESCRIPTION")
	for _, e := range events {
		device := "-"
		if e.DeviceID != nil {
			device = fmt.Sprintf("%d", *e.DeviceID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Type, e.Outcome, device, e.SourceIP, e.Description)
	}
	return tw.Flush()
}
