package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Analyse a workspace whenever it changes",
	Long: `Scans the workspace, then watches it and rescans shortly after files are
added, changed or removed. Each rescan only sends the changed files.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait this long for changes to settle before rescanning")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	session, err := openSession(args)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	session.LoadFilters(ctx)
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", session.Root())

	progress := newProgressPrinter(cmd.ErrOrStderr())
	err = session.Watch(ctx, watchDebounce, progress.Report, func(result *domain.AnalysisResult, err error) {
		progress.Done()
		stamp := time.Now().Format("15:04:05")
		if err != nil {
			logger.Error("Scan failed: %s", domain.UserMessage(err))
			return
		}
		cmd.Printf("\n[%s] ", stamp)
		printResult(cmd.OutOrStdout(), session.Root(), result)
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}
