package memory

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// Ensure ExclusionFilter implements the interface.
var _ driven.IgnoreFilter = (*ExclusionFilter)(nil)

// ExclusionFilter is an in-memory driven.IgnoreFilter honouring exact-path exclusions.
type ExclusionFilter struct {
	mu         sync.RWMutex
	exclusions map[string]domain.Exclusion
}

// NewExclusionFilter creates an empty exclusion filter.
func NewExclusionFilter() *ExclusionFilter {
	return &ExclusionFilter{
		exclusions: make(map[string]domain.Exclusion),
	}
}

// Add excludes a path within a workspace. The path may be absolute or
// relative to the workspace root. Excluding a path twice replaces the
// reason of the existing exclusion, which is returned.
func (f *ExclusionFilter) Add(workspace, path, reason string) domain.Exclusion {
	local := path
	if !filepath.IsAbs(path) {
		local = domain.LocalPath(workspace, path)
	}
	bundlePath := domain.BundlePath(workspace, local)

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.exclusions {
		if existing.Workspace == workspace && existing.Path == bundlePath {
			existing.Reason = reason
			f.exclusions[id] = existing
			return existing
		}
	}
	exclusion := domain.Exclusion{
		ID:         uuid.New().String(),
		Workspace:  workspace,
		Path:       bundlePath,
		Reason:     reason,
		ExcludedAt: time.Now(),
	}
	f.exclusions[exclusion.ID] = exclusion
	return exclusion
}

// Put restores a previously created exclusion.
func (f *ExclusionFilter) Put(exclusion domain.Exclusion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exclusions[exclusion.ID] = exclusion
}

// Remove deletes an exclusion by ID. Returns false if there was none.
func (f *ExclusionFilter) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exclusions[id]; !ok {
		return false
	}
	delete(f.exclusions, id)
	return true
}

// List returns all exclusions for a workspace, ordered by path.
func (f *ExclusionFilter) List(workspace string) []domain.Exclusion {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]domain.Exclusion, 0)
	for _, exclusion := range f.exclusions {
		if exclusion.Workspace == workspace {
			result = append(result, exclusion)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// IsExcluded checks if a local path is excluded within a workspace.
func (f *ExclusionFilter) IsExcluded(workspace, localPath string) bool {
	bundlePath := domain.BundlePath(workspace, localPath)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, exclusion := range f.exclusions {
		if exclusion.Workspace == workspace && exclusion.Path == bundlePath {
			return true
		}
	}
	return false
}

// FilterFiles drops excluded paths, preserving order.
func (f *ExclusionFilter) FilterFiles(ctx context.Context, rootPath string, paths []string) ([]string, error) {
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.IsExcluded(rootPath, path) {
			continue
		}
		result = append(result, path)
	}
	return result, nil
}
