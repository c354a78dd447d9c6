package driven

import "context"

// FileTracker enumerates workspace files and tracks changes since the last
// successful scan. All paths are absolute local paths.
type FileTracker interface {
	// RootPath returns the workspace root.
	RootPath() string

	// GetChangedFiles returns files modified since the last scan.
	// Newly added files are not included.
	GetChangedFiles() []string

	// GetAllChangedFiles returns files added or modified since the last scan.
	GetAllChangedFiles() []string

	// GetRemovedFiles returns files removed since the last scan.
	GetRemovedFiles() []string

	// GetFilesAsync enumerates every file in the workspace.
	GetFilesAsync(ctx context.Context) ([]string, error)

	// ClearHistory forgets every recorded change.
	ClearHistory()

	// Checkpoint returns a marker for the changes recorded so far.
	Checkpoint() uint64

	// ClearHistoryUntil forgets changes recorded up to checkpoint. Changes
	// recorded later, including new changes to the same files, are kept.
	// Called after a successful scan.
	ClearHistoryUntil(checkpoint uint64)
}
