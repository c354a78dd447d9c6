package driven

import (
	"context"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// CodeCache holds the last successful analysis for one workspace and an
// index resolving bundle paths back to local content.
// Readers never lock: entries are replaced wholesale.
type CodeCache interface {
	// IsCacheExists returns true if an entry has been committed.
	IsCacheExists() bool

	// IsCacheValid returns true if the entry exists and no file changed since.
	IsCacheValid() bool

	// GetCachedAnalysisResult returns the cached result, nil when empty.
	GetCachedAnalysisResult() *domain.AnalysisResult

	// GetCachedBundleID returns the cached bundle id, empty when empty.
	GetCachedBundleID() string

	// GetCachedFiles returns the files known to the cached bundle.
	GetCachedFiles() domain.FileHashes

	// Entry returns the current entry snapshot, nil when empty.
	Entry() *domain.CacheEntry

	// Commit replaces the entry. The entry must satisfy entry.Validate.
	Commit(entry *domain.CacheEntry) error

	// Invalidate marks the entry stale.
	Invalidate()

	// Clear drops the entry and the content index.
	Clear()

	// IndexFiles records hashed files so missing content can be resolved.
	IndexFiles(files domain.FileHashes)

	// ResolveFile maps a bundle path to its hashed local file.
	ResolveFile(bundlePath string) (domain.FileHash, bool)
}

// CacheSnapshotStore persists cache entries across process restarts.
type CacheSnapshotStore interface {
	// Load returns the entry for a workspace or domain.ErrNotFound.
	Load(ctx context.Context, workspace string) (*domain.CacheEntry, error)

	// Save stores or replaces the entry for entry.Workspace.
	Save(ctx context.Context, entry *domain.CacheEntry) error

	// Delete removes the entry for a workspace.
	Delete(ctx context.Context, workspace string) error
}
