// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/motortrack/internal/models"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect or manage the cached provider token",
	Args:  cobra.NoArgs,
	RunE:  runTokenShow,
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Acquire a new provider token now",
	Long: `Forces a new provider token. Acquisitions share the provider's auth
rate limit with the sync loop, so the server may answer RATE_LIMITED.`,
	Args: cobra.NoArgs,
	RunE: runTokenRefresh,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached provider token",
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

var tokenQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show callers waiting on token acquisition",
	Args:  cobra.NoArgs,
	RunE:  runTokenQueue,
}

func init() {
	tokenCmd.AddCommand(tokenRefreshCmd, tokenClearCmd, tokenQueueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenShow(cmd *cobra.Command, _ []string) error {
	info, err := apiClient.Token(cmd.Context())
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	return printTokenInfo(cmd, info)
}

func runTokenRefresh(cmd *cobra.Command, _ []string) error {
	info, err := apiClient.RefreshToken(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	return printTokenInfo(cmd, info)
}

func runTokenClear(cmd *cobra.Command, _ []string) error {
	if err := apiClient.ClearToken(cmd.Context()); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	cmd.Println("Token cache cleared.")
	return nil
}

func runTokenQueue(cmd *cobra.Command, _ []string) error {
	q, err := apiClient.TokenQueue(cmd.Context())
	if err != nil {
		return fmt.Errorf("token queue: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, q)
	}
	cmd.Printf("Waiting: %d, acquiring: %t\n", q.Length, q.IsProcessing)
	return nil
}

func printTokenInfo(cmd *cobra.Command, info *models.TokenInfo) error {
	if jsonOutput {
		return printJSON(cmd, info)
	}
	if !info.Valid {
		cmd.Println("Token: none cached")
		return nil
	}
	cmd.Printf("Token: %s\n", info.Token)
	if info.ExpiresAt != nil {
		cmd.Printf("Expires: %s\n", info.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}
