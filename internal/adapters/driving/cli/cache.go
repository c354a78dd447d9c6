package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the cached analysis for a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Forget the cached analysis so the next scan starts fresh",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	session, err := openSession(args)
	if err != nil {
		return err
	}

	entry, err := session.Cached(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("No cached analysis for %s\n", session.Root())
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	state := "valid"
	if !entry.Valid {
		state = "stale"
	}
	cmd.Printf("Workspace: %s\n", session.Root())
	cmd.Printf("Bundle:    %s\n", entry.BundleID)
	cmd.Printf("State:     %s\n", state)
	cmd.Printf("Files:     %d\n", len(entry.Files))
	cmd.Printf("Issues:    %d\n", entry.Result.IssueCount())
	if !entry.UpdatedAt.IsZero() {
		cmd.Printf("Updated:   %s\n", entry.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	session, err := openSession(args)
	if err != nil {
		return err
	}
	if err := session.ClearCache(cmd.Context()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	cmd.Printf("Cache cleared for %s\n", session.Root())
	return nil
}
