package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// Ensure CodeCache implements the interface.
var _ driven.CodeCache = (*CodeCache)(nil)

// CodeCache is an in-memory implementation of driven.CodeCache for one workspace.
// The entry is swapped atomically so readers never lock.
type CodeCache struct {
	workspace string
	entry     atomic.Pointer[domain.CacheEntry]

	mu    sync.RWMutex
	index domain.FileHashes
}

// NewCodeCache creates an empty cache for a workspace.
func NewCodeCache(workspace string) *CodeCache {
	return &CodeCache{
		workspace: workspace,
		index:     make(domain.FileHashes),
	}
}

// Workspace returns the workspace root the cache belongs to.
func (c *CodeCache) Workspace() string {
	return c.workspace
}

// IsCacheExists returns true if an entry has been committed.
func (c *CodeCache) IsCacheExists() bool {
	return c.entry.Load() != nil
}

// IsCacheValid returns true if the entry exists and is still valid.
func (c *CodeCache) IsCacheValid() bool {
	e := c.entry.Load()
	return e != nil && e.Valid
}

// GetCachedAnalysisResult returns the cached result.
func (c *CodeCache) GetCachedAnalysisResult() *domain.AnalysisResult {
	if e := c.entry.Load(); e != nil {
		return e.Result
	}
	return nil
}

// GetCachedBundleID returns the cached bundle id.
func (c *CodeCache) GetCachedBundleID() string {
	if e := c.entry.Load(); e != nil {
		return e.BundleID
	}
	return ""
}

// GetCachedFiles returns the files known to the cached bundle.
func (c *CodeCache) GetCachedFiles() domain.FileHashes {
	if e := c.entry.Load(); e != nil && e.Files != nil {
		return e.Files
	}
	return domain.FileHashes{}
}

// Entry returns the current entry snapshot.
func (c *CodeCache) Entry() *domain.CacheEntry {
	return c.entry.Load()
}

// Commit replaces the entry wholesale.
func (c *CodeCache) Commit(entry *domain.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	e := *entry
	e.Workspace = c.workspace
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	c.entry.Store(&e)
	c.IndexFiles(e.Files)
	return nil
}

// Restore loads a previously persisted entry, e.g. from a snapshot store.
// Entries belonging to another workspace are rejected.
func (c *CodeCache) Restore(entry *domain.CacheEntry) error {
	if entry != nil && entry.Workspace != "" && entry.Workspace != c.workspace {
		return fmt.Errorf("%w: entry for workspace %s", domain.ErrInvalidCacheEntry, entry.Workspace)
	}
	return c.Commit(entry)
}

// Invalidate marks the entry stale. It is a no-op when empty.
func (c *CodeCache) Invalidate() {
	for {
		cur := c.entry.Load()
		if cur == nil || !cur.Valid {
			return
		}
		if c.entry.CompareAndSwap(cur, cur.Invalidated()) {
			return
		}
	}
}

// Clear drops the entry and the content index.
func (c *CodeCache) Clear() {
	c.entry.Store(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = make(domain.FileHashes)
}

// IndexFiles records hashed files so missing content can be resolved.
func (c *CodeCache) IndexFiles(files domain.FileHashes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, fh := range files {
		c.index[path] = fh
	}
}

// ResolveFile maps a bundle path to its hashed local file.
func (c *CodeCache) ResolveFile(bundlePath string) (domain.FileHash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fh, ok := c.index[bundlePath]
	return fh, ok
}
