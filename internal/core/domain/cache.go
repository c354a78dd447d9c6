package domain

import (
	"fmt"
	"time"
)

// CacheEntry is the last successful analysis for a workspace.
// Entries are values: they are replaced wholesale, never mutated in place.
type CacheEntry struct {
	// Workspace is the workspace root the entry belongs to.
	Workspace string

	// BundleID is the remote bundle the result was computed for.
	BundleID string

	// Result is the last complete analysis.
	Result *AnalysisResult

	// Files is what the remote bundle knows about the workspace.
	Files FileHashes

	// Valid is false once any file was added, changed or removed since the scan.
	Valid bool

	UpdatedAt time.Time
}

// Validate checks the cache invariants.
func (e *CacheEntry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidCacheEntry)
	}
	if e.BundleID == "" {
		return fmt.Errorf("%w: missing bundle id", ErrInvalidCacheEntry)
	}
	if e.Result == nil {
		return fmt.Errorf("%w: missing analysis result", ErrInvalidCacheEntry)
	}
	if e.Valid && e.Result.Status != AnalysisComplete {
		return fmt.Errorf("%w: valid entry with %s analysis", ErrInvalidCacheEntry, e.Result.Status)
	}
	return nil
}

// Invalidated returns a copy of the entry marked invalid.
func (e CacheEntry) Invalidated() *CacheEntry {
	e.Valid = false
	return &e
}
