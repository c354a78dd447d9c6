package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Analyse a workspace",
	Long: `Analyses the workspace at path (default: the current directory).

The first scan uploads every supported file. Later scans reuse the cached
bundle and only send files that were added, changed or removed since.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanJSON        bool
	scanFailOn      string
	scanSkipFilters bool
)

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the result as JSON")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "exit with an error if an issue of this severity or higher is found (low, medium, high)")
	scanCmd.Flags().BoolVar(&scanSkipFilters, "skip-filters", false, "use the configured file types instead of asking the service")
	rootCmd.AddCommand(scanCmd)
}

// errIssuesFound is returned when --fail-on matches.
type errIssuesFound struct {
	count    int
	severity domain.Severity
}

func (e errIssuesFound) Error() string {
	return fmt.Sprintf("%d issues of severity %s or higher found", e.count, e.severity)
}

func runScan(cmd *cobra.Command, args []string) error {
	var threshold domain.Severity
	if scanFailOn != "" {
		var err error
		if threshold, err = domain.ParseSeverity(scanFailOn); err != nil {
			return err
		}
	}

	session, err := openSession(args)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if !scanSkipFilters {
		session.LoadFilters(ctx)
	}

	progress := newProgressPrinter(cmd.ErrOrStderr())
	result, err := session.Scan(ctx, progress.Report)
	progress.Done()
	if err != nil {
		return fmt.Errorf("scan failed: %s: %w", domain.UserMessage(err), err)
	}

	if scanJSON {
		if err := writeJSON(cmd.OutOrStdout(), session.Root(), result); err != nil {
			return err
		}
	} else {
		printResult(cmd.OutOrStdout(), session.Root(), result)
	}

	if result != nil && result.Status == domain.AnalysisFailed {
		return fmt.Errorf("analysis of %s failed", session.Root())
	}
	if threshold != 0 {
		if n := countAtLeast(result, threshold); n > 0 {
			return errIssuesFound{count: n, severity: threshold}
		}
	}
	return nil
}

// signalContext is cancelled on interrupt or terminate.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func countAtLeast(result *domain.AnalysisResult, threshold domain.Severity) int {
	n := 0
	for severity, count := range result.CountBySeverity() {
		if severity >= threshold {
			n += count
		}
	}
	return n
}

// printResult writes a plain text summary followed by every issue.
func printResult(w io.Writer, root string, result *domain.AnalysisResult) {
	if result == nil {
		fmt.Fprintf(w, "No supported files found in %s\n", root)
		return
	}
	if result.Status == domain.AnalysisFailed {
		fmt.Fprintf(w, "Analysis of %s failed\n", root)
		return
	}

	counts := result.CountBySeverity()
	fmt.Fprintf(w, "%s: %d issues (high %d, medium %d, low %d)\n", root, result.IssueCount(),
		counts[domain.SeverityHigh], counts[domain.SeverityMedium], counts[domain.SeverityLow])

	for _, fa := range result.FileAnalyses {
		if len(fa.Suggestions) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", fa.FileName)
		for _, s := range fa.Suggestions {
			fmt.Fprintf(w, "  %d:%d  %-6s  %s  %s\n", s.Rows[0], s.Columns[0], s.Severity, s.RuleID, s.Message)
		}
	}
}

type jsonReport struct {
	Root   string     `json:"root"`
	Status string     `json:"status"`
	Issues int        `json:"issues"`
	Files  []jsonFile `json:"files"`
}

type jsonFile struct {
	File   string      `json:"file"`
	Issues []jsonIssue `json:"issues"`
}

type jsonIssue struct {
	ID       string `json:"id"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func writeJSON(w io.Writer, root string, result *domain.AnalysisResult) error {
	report := jsonReport{Root: root, Status: "empty", Files: []jsonFile{}}
	if result != nil {
		report.Status = result.Status.String()
		report.Issues = result.IssueCount()
		for _, fa := range result.FileAnalyses {
			file := jsonFile{File: fa.FileName, Issues: make([]jsonIssue, 0, len(fa.Suggestions))}
			for _, s := range fa.Suggestions {
				file.Issues = append(file.Issues, jsonIssue{
					ID:       s.ID,
					Rule:     s.RuleID,
					Message:  s.Message,
					Severity: s.Severity.String(),
					Line:     s.Rows[0],
					Column:   s.Columns[0],
				})
			}
			report.Files = append(report.Files, file)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
