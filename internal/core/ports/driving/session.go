package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// WorkspaceSession scans one workspace directory on behalf of a driving
// adapter such as the CLI.
type WorkspaceSession interface {
	// Root returns the absolute workspace root.
	Root() string

	// LoadFilters narrows scans to the file types the service supports.
	// Failures are logged and the configured types stay in effect.
	LoadFilters(ctx context.Context)

	// Scan analyses the workspace, reusing the persisted cache when the
	// workspace has not changed since it was written.
	Scan(ctx context.Context, onProgress domain.ProgressFunc) (*domain.AnalysisResult, error)

	// Watch scans, then rescans after every settled burst of file changes
	// until ctx is cancelled.
	Watch(
		ctx context.Context,
		debounce time.Duration,
		onProgress domain.ProgressFunc,
		onScan func(*domain.AnalysisResult, error),
	) error

	// Cached returns the cached entry or domain.ErrNotFound.
	Cached(ctx context.Context) (*domain.CacheEntry, error)

	// ClearCache drops the cached analysis.
	ClearCache(ctx context.Context) error

	// Exclude skips path, absolute or relative to the root, in later scans.
	Exclude(ctx context.Context, path, reason string) (domain.Exclusion, error)

	// Include removes an exclusion by ID.
	// Returns domain.ErrNotFound if the workspace has no such exclusion.
	Include(ctx context.Context, id string) error

	// Exclusions lists the exclusions of the workspace ordered by path.
	Exclusions(ctx context.Context) ([]domain.Exclusion, error)
}

// SessionOpener opens a session for a workspace directory.
type SessionOpener func(root string) (WorkspaceSession, error)
