package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-code/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-code/internal/adapters/driven/tracker"
	"github.com/custodia-labs/sercha-code/internal/adapters/driven/workspace"
	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-code/internal/core/services"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// DefaultDebounce is how long watch mode waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Remote is the analysis service a session talks to.
type Remote interface {
	driven.BundleService
	driven.AnalysisService
	driven.FiltersService
}

// Stores holds the persistent stores a session uses. Either may be nil,
// in which case that state lives only as long as the session.
type Stores struct {
	Snapshots  driven.CacheSnapshotStore
	Exclusions driven.ExclusionStore
}

// Ensure Session implements the interface.
var _ driving.WorkspaceSession = (*Session)(nil)

// Session scans one workspace directory.
type Session struct {
	files      *workspace.Files
	cache      *memory.CodeCache
	filter     *workspace.ExtensionFilter
	exclusions *memory.ExclusionFilter
	remote     Remote
	snapshots  driven.CacheSnapshotStore
	excluded   driven.ExclusionStore
	scanner    *services.ScanOrchestrator

	mu     sync.Mutex
	loaded bool
}

// Open creates a session for root.
func Open(root string, settings *domain.Settings, remote Remote, stores Stores) (*Session, error) {
	if settings == nil {
		return nil, fmt.Errorf("open %s: %w: no settings", root, domain.ErrInvalidInput)
	}
	files, err := workspace.NewOS(root, settings.Scan.Workers)
	if err != nil {
		return nil, err
	}

	s := &Session{
		files:      files,
		cache:      memory.NewCodeCache(files.Root()),
		exclusions: memory.NewExclusionFilter(),
		remote:     remote,
		snapshots:  stores.Snapshots,
		excluded:   stores.Exclusions,
	}
	s.filter = workspace.NewExtensionFilter(files, driven.SupportedFiles{
		Extensions:  settings.Filter.Extensions,
		ConfigFiles: settings.Filter.ConfigFiles,
	}, settings.Filter.MaxFileSize)
	for _, path := range settings.Scan.Exclude {
		s.exclusions.Add(files.Root(), path, "configured")
	}

	s.scanner = services.NewScanOrchestrator(
		s.cache, files, s.filter, s.exclusions,
		remote, remote, stores.Snapshots, *settings,
	)
	return s, nil
}

// Root returns the absolute workspace root.
func (s *Session) Root() string {
	return s.files.Root()
}

// Exclude ignores path, absolute or relative to the root, in later scans.
func (s *Session) Exclude(ctx context.Context, path, reason string) (domain.Exclusion, error) {
	if err := s.loadExclusions(ctx); err != nil {
		return domain.Exclusion{}, err
	}
	exclusion := s.exclusions.Add(s.Root(), path, reason)
	if s.excluded != nil {
		if err := s.excluded.Add(ctx, &exclusion); err != nil {
			s.exclusions.Remove(exclusion.ID)
			return domain.Exclusion{}, fmt.Errorf("exclude %s: %w", exclusion.Path, err)
		}
	}
	s.cache.Invalidate()
	logger.Debug("Excluded %s", exclusion.Path)
	return exclusion, nil
}

// Include removes an exclusion by ID.
// Returns domain.ErrNotFound if the workspace has no such exclusion.
func (s *Session) Include(ctx context.Context, id string) error {
	if err := s.loadExclusions(ctx); err != nil {
		return err
	}
	if !s.exclusions.Remove(id) {
		return domain.ErrNotFound
	}
	if s.excluded != nil {
		if err := s.excluded.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("include: %w", err)
		}
	}
	s.cache.Invalidate()
	return nil
}

// Exclusions lists the exclusions of the workspace ordered by path.
func (s *Session) Exclusions(ctx context.Context) ([]domain.Exclusion, error) {
	if err := s.loadExclusions(ctx); err != nil {
		return nil, err
	}
	return s.exclusions.List(s.Root()), nil
}

// loadExclusions merges the persisted exclusions into the filter once.
func (s *Session) loadExclusions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded || s.excluded == nil {
		return nil
	}
	stored, err := s.excluded.List(ctx, s.Root())
	if err != nil {
		return fmt.Errorf("load exclusions: %w", err)
	}
	for _, exclusion := range stored {
		s.exclusions.Put(exclusion)
	}
	s.loaded = true
	return nil
}

// LoadFilters replaces the configured file types with the ones the service
// supports. On failure the configured types stay in effect.
func (s *Session) LoadFilters(ctx context.Context) {
	supported, err := s.remote.GetFilters(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Cannot fetch supported file types, using configured ones: %s", domain.UserMessage(err))
		}
		return
	}
	s.filter.SetSupported(*supported)
	logger.Debug("Service supports %d extensions and %d config files",
		len(supported.Extensions), len(supported.ConfigFiles))
}

// Restore loads the persisted cache entry, if any. Returns true if an
// entry was restored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.snapshots == nil || s.cache.IsCacheExists() {
		return false, nil
	}
	entry, err := s.snapshots.Load(ctx, s.Root())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load cache: %w", err)
	}
	if err := s.cache.Restore(entry); err != nil {
		logger.Warn("Discarding unusable cache for %s: %v", s.Root(), err)
		return false, nil
	}
	logger.Debug("Restored cache for bundle %s with %d files", entry.BundleID, len(entry.Files))
	return true, nil
}

// Scan restores the persisted cache, diffs the workspace against it and
// analyses whatever changed.
func (s *Session) Scan(ctx context.Context, onProgress domain.ProgressFunc) (*domain.AnalysisResult, error) {
	if err := s.loadExclusions(ctx); err != nil {
		return nil, err
	}
	if _, err := s.Restore(ctx); err != nil {
		return nil, err
	}

	snapshot := tracker.NewSnapshot(s.files, s.eligible)
	if s.cache.IsCacheExists() {
		changed, err := snapshot.Refresh(ctx, s.cache.GetCachedFiles())
		if err != nil {
			return nil, err
		}
		if changed {
			logger.Debug("Workspace changed since last scan")
			s.cache.Invalidate()
		}
	}
	return s.scanner.Scan(ctx, snapshot, onProgress)
}

// Watch scans the workspace, then rescans after every settled burst of
// changes until ctx is cancelled. onScan receives each outcome.
func (s *Session) Watch(
	ctx context.Context,
	debounce time.Duration,
	onProgress domain.ProgressFunc,
	onScan func(*domain.AnalysisResult, error),
) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher := tracker.NewWatcher(s.files)
	defer watcher.Close()
	watcher.OnChange(s.cache.Invalidate)

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	result, err := s.Scan(ctx, onProgress)
	if ctx.Err() != nil {
		return nil
	}
	// The first scan diffs a snapshot, so changes the watcher saw meanwhile
	// are not in its result.
	if len(watcher.GetAllChangedFiles()) > 0 || len(watcher.GetRemovedFiles()) > 0 {
		s.cache.Invalidate()
	}
	onScan(result, err)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			timer.Reset(debounce)
		case <-timer.C:
			result, err := s.scanner.Scan(ctx, watcher, onProgress)
			if ctx.Err() != nil {
				return nil
			}
			onScan(result, err)
		}
	}
}

// Cached returns the cache entry for the workspace, from memory or the
// snapshot store. Returns domain.ErrNotFound if there is none.
func (s *Session) Cached(ctx context.Context) (*domain.CacheEntry, error) {
	if entry := s.cache.Entry(); entry != nil {
		return entry, nil
	}
	if s.snapshots == nil {
		return nil, domain.ErrNotFound
	}
	return s.snapshots.Load(ctx, s.Root())
}

// ClearCache drops the cached analysis in memory and in the snapshot store.
func (s *Session) ClearCache(ctx context.Context) error {
	if err := s.scanner.ClearCache(ctx); err != nil {
		return err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, s.Root()); err != nil {
			return fmt.Errorf("delete cache: %w", err)
		}
	}
	return nil
}

// eligible applies the file type filter, then the exclusions.
func (s *Session) eligible(ctx context.Context, paths []string) ([]string, error) {
	paths, err := s.filter.FilterFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	return s.exclusions.FilterFiles(ctx, s.Root(), paths)
}
