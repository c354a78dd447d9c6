package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

var (
	excludeWorkspace string
	excludeReason    string
)

var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Manage files skipped by analysis",
}

var excludeAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Skip files in later scans",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExcludeAdd,
}

var excludeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List excluded files",
	Args:  cobra.NoArgs,
	RunE:  runExcludeList,
}

var excludeRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Analyse an excluded file again",
	Args:  cobra.ExactArgs(1),
	RunE:  runExcludeRemove,
}

func init() {
	excludeCmd.PersistentFlags().StringVarP(&excludeWorkspace, "workspace", "w", ".", "workspace directory")
	excludeAddCmd.Flags().StringVar(&excludeReason, "reason", "", "why the files are skipped")

	excludeCmd.AddCommand(excludeAddCmd)
	excludeCmd.AddCommand(excludeListCmd)
	excludeCmd.AddCommand(excludeRemoveCmd)
	rootCmd.AddCommand(excludeCmd)
}

func runExcludeAdd(cmd *cobra.Command, args []string) error {
	session, err := openSession([]string{excludeWorkspace})
	if err != nil {
		return err
	}
	for _, path := range args {
		exclusion, err := session.Exclude(cmd.Context(), path, excludeReason)
		if err != nil {
			return err
		}
		cmd.Printf("Excluded %s (%s)\n", exclusion.Path, exclusion.ID)
	}
	return nil
}

func runExcludeList(cmd *cobra.Command, _ []string) error {
	session, err := openSession([]string{excludeWorkspace})
	if err != nil {
		return err
	}
	exclusions, err := session.Exclusions(cmd.Context())
	if err != nil {
		return err
	}
	if len(exclusions) == 0 {
		cmd.Printf("No exclusions for %s\n", session.Root())
		return nil
	}
	for _, e := range exclusions {
		line := fmt.Sprintf("%s  %s", e.ID, e.Path)
		if e.Reason != "" {
			line += "  (" + e.Reason + ")"
		}
		cmd.Println(line)
	}
	return nil
}

func runExcludeRemove(cmd *cobra.Command, args []string) error {
	session, err := openSession([]string{excludeWorkspace})
	if err != nil {
		return err
	}
	err = session.Include(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no exclusion %s in %s", args[0], session.Root())
	}
	if err != nil {
		return err
	}
	cmd.Printf("Removed exclusion %s\n", args[0])
	return nil
}
