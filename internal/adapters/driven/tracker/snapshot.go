package tracker

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-code/internal/adapters/driven/workspace"
	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// Ensure Snapshot implements the interface.
var _ driven.FileTracker = (*Snapshot)(nil)

// FilterFunc narrows a list of local paths.
type FilterFunc func(ctx context.Context, paths []string) ([]string, error)

// Snapshot tracks changes by comparing the workspace with the files of the
// last cached scan.
type Snapshot struct {
	*history
	files  *workspace.Files
	filter FilterFunc
}

// NewSnapshot creates a snapshot tracker. filter may be nil.
func NewSnapshot(files *workspace.Files, filter FilterFunc) *Snapshot {
	return &Snapshot{
		history: newHistory(),
		files:   files,
		filter:  filter,
	}
}

// RootPath returns the workspace root.
func (s *Snapshot) RootPath() string {
	return s.files.Root()
}

// GetFilesAsync enumerates every file in the workspace.
func (s *Snapshot) GetFilesAsync(ctx context.Context) ([]string, error) {
	return s.files.List(ctx)
}

// Refresh hashes the current workspace and records every difference from
// previous as a change. Returns true if anything changed.
func (s *Snapshot) Refresh(ctx context.Context, previous domain.FileHashes) (bool, error) {
	paths, err := s.files.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list workspace: %w", err)
	}
	if s.filter != nil {
		paths, err = s.filter(ctx, paths)
		if err != nil {
			return false, fmt.Errorf("filter workspace: %w", err)
		}
	}
	current, err := s.files.Hash(ctx, paths)
	if err != nil {
		return false, fmt.Errorf("hash workspace: %w", err)
	}

	s.ClearHistory()
	for bundlePath, fh := range current {
		old, ok := previous[bundlePath]
		switch {
		case !ok:
			s.record(changeAdded, fh.LocalPath)
		case old.Hash != fh.Hash:
			s.record(changeModified, fh.LocalPath)
		}
	}
	for bundlePath, old := range previous {
		if _, ok := current[bundlePath]; ok {
			continue
		}
		localPath := old.LocalPath
		if localPath == "" {
			localPath = domain.LocalPath(s.files.Root(), bundlePath)
		}
		s.record(changeRemoved, localPath)
	}
	return !s.empty(), nil
}
