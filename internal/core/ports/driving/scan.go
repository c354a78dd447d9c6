package driving

import (
	"context"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// ScanOrchestrator runs code analysis scans for a workspace.
type ScanOrchestrator interface {
	// Scan returns the analysis for the tracker's workspace, reusing the cache
	// when it is valid. Returns nil and no error when there is nothing to scan.
	Scan(ctx context.Context, tracker driven.FileTracker, onProgress domain.ProgressFunc) (*domain.AnalysisResult, error)

	// Status returns the current scan status.
	Status(ctx context.Context) ScanStatus

	// ClearCache drops the cached analysis, forcing a full scan next time.
	ClearCache(ctx context.Context) error
}

// ScanStatus represents the current state of a scan.
type ScanStatus struct {
	// ScanID identifies the running or last scan.
	ScanID string

	// Running indicates if a scan is currently in progress.
	Running bool

	// Stage is the current pipeline step.
	Stage domain.ScanStage

	// Percent is the progress within Stage.
	Percent int

	// CacheValid reports whether the cached analysis is current.
	CacheValid bool
}
