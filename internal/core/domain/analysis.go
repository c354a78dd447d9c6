package domain

import (
	"fmt"
	"strings"
)

// AnalysisStatus is the state of a remote analysis.
type AnalysisStatus int

// Analysis states. Pending is the only non-terminal state.
const (
	AnalysisPending AnalysisStatus = iota
	AnalysisComplete
	AnalysisFailed
)

// String returns the string representation.
func (s AnalysisStatus) String() string {
	switch s {
	case AnalysisPending:
		return "pending"
	case AnalysisComplete:
		return "complete"
	case AnalysisFailed:
		return "failed"
	default:
		return fmt.Sprintf("AnalysisStatus(%d)", int(s))
	}
}

// IsTerminal returns true for Complete and Failed.
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisComplete || s == AnalysisFailed
}

// ParseAnalysisStatus maps a remote status string to an AnalysisStatus.
// The remote service reports several intermediate states that all map to Pending.
func ParseAnalysisStatus(s string) (AnalysisStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMPLETE", "DONE":
		return AnalysisComplete, nil
	case "FAILED", "ERROR":
		return AnalysisFailed, nil
	case "WAITING", "FETCHING", "ANALYZING", "DC_DONE", "PENDING", "PARSING":
		return AnalysisPending, nil
	default:
		return AnalysisPending, fmt.Errorf("%w: unknown analysis status %q", ErrInvalidInput, s)
	}
}

// AnalysisResult is the outcome of a remote analysis.
// Results are immutable once returned by the poller.
type AnalysisResult struct {
	Status AnalysisStatus

	// Progress is the completion ratio in the range 0..1.
	Progress float64

	FileAnalyses []FileAnalysis
}

// Percent returns Progress as an integer percentage clamped to 0..100.
func (r *AnalysisResult) Percent() int {
	if r == nil {
		return 0
	}
	p := int(r.Progress * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// IssueCount returns the total number of suggestions across all files.
func (r *AnalysisResult) IssueCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, fa := range r.FileAnalyses {
		n += len(fa.Suggestions)
	}
	return n
}

// CountBySeverity returns the number of suggestions per severity.
func (r *AnalysisResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	if r == nil {
		return counts
	}
	for _, fa := range r.FileAnalyses {
		for _, s := range fa.Suggestions {
			counts[s.Severity]++
		}
	}
	return counts
}

// FileAnalysis holds the findings for one file.
type FileAnalysis struct {
	FileName    string
	Suggestions []Suggestion
}

// Severity of a suggestion, as reported by the remote service (1 = low, 3 = high).
type Severity int

// Severity levels.
const (
	SeverityLow    Severity = 1
	SeverityMedium Severity = 2
	SeverityHigh   Severity = 3
)

// String returns the string representation.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseSeverity parses "low", "medium" or "high".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return 0, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, s)
	}
}

// Suggestion is a single finding within a file.
type Suggestion struct {
	ID       string
	RuleID   string
	Message  string
	Severity Severity

	// Rows and Columns are the start and end of the finding, 1-based.
	Rows    [2]int
	Columns [2]int

	Markers []Marker
}

// Marker links parts of a suggestion message to locations in code.
type Marker struct {
	// MessageIndexes is the start and end offset within the message.
	MessageIndexes []int

	Positions []Position
}

// Position is a location referenced by a marker.
type Position struct {
	File    string
	Rows    [2]int
	Columns [2]int
}
