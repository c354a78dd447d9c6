package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Ensure ScanOrchestrator implements the interface.
var _ driving.ScanOrchestrator = (*ScanOrchestrator)(nil)

// ScanOrchestrator coordinates code analysis scans for one workspace.
// Only one scan runs at a time; overlapping calls fail with
// domain.ErrScanInProgress.
type ScanOrchestrator struct {
	cache        driven.CodeCache
	fileFilter   driven.FileFilter
	ignoreFilter driven.IgnoreFilter
	bundles      driven.BundleService
	snapshots    driven.CacheSnapshotStore
	reconciler   *BundleReconciler
	uploader     *UploadCoordinator
	poller       *AnalysisPoller
	maxAttempts  int

	// Status tracking
	mu     sync.RWMutex
	status driving.ScanStatus
}

// NewScanOrchestrator creates a new scan orchestrator.
// The ignoreFilter and snapshots are optional.
func NewScanOrchestrator(
	cache driven.CodeCache,
	hasher driven.ContentHasher,
	fileFilter driven.FileFilter,
	ignoreFilter driven.IgnoreFilter,
	bundles driven.BundleService,
	analysis driven.AnalysisService,
	snapshots driven.CacheSnapshotStore,
	settings domain.Settings,
) *ScanOrchestrator {
	return &ScanOrchestrator{
		cache:        cache,
		fileFilter:   fileFilter,
		ignoreFilter: ignoreFilter,
		bundles:      bundles,
		snapshots:    snapshots,
		reconciler:   NewBundleReconciler(hasher),
		uploader:     NewUploadCoordinator(bundles, hasher, cache, settings.Upload),
		poller:       NewAnalysisPoller(analysis, settings.Poll),
		maxAttempts:  settings.Poll.MaxAttempts,
	}
}

// pendingScan is the bundle prepared for upload and analysis.
type pendingScan struct {
	bundle *domain.Bundle
	files  domain.FileHashes
}

// Scan returns the analysis for the tracker's workspace.
//
// A valid cache is returned without remote calls. An invalid cache extends
// the cached bundle with the tracker's changes; no cache creates a bundle from
// every file. Returns nil and no error when there is nothing to scan. Only a
// complete analysis is committed to the cache, and it stays invalid if the
// tracker recorded changes while the scan ran.
func (o *ScanOrchestrator) Scan(
	ctx context.Context,
	tracker driven.FileTracker,
	onProgress domain.ProgressFunc,
) (*domain.AnalysisResult, error) {
	if !o.begin() {
		return nil, domain.ErrScanInProgress
	}
	defer o.end()

	progress := func(stage domain.ScanStage, percent int) {
		o.setProgress(stage, percent)
		onProgress.Report(stage, percent)
	}

	if o.cache.IsCacheExists() && o.cache.IsCacheValid() {
		logger.Debug("Using cached analysis for bundle %s", o.cache.GetCachedBundleID())
		progress(domain.StageDone, 100)
		return o.cache.GetCachedAnalysisResult(), nil
	}

	progress(domain.StagePreparing, 0)
	root := tracker.RootPath()
	checkpoint := tracker.Checkpoint()

	var (
		pending *pendingScan
		err     error
	)
	if entry := o.cache.Entry(); entry != nil {
		pending, err = o.prepareIncremental(ctx, tracker, entry)
		var pe *domain.ProtocolError
		if errors.As(err, &pe) && pe.Code == domain.CodeNotFound {
			logger.Warn("Bundle %s no longer exists remotely, rescanning workspace", entry.BundleID)
			pending, err = o.prepareFull(ctx, tracker)
		}
	} else {
		pending, err = o.prepareFull(ctx, tracker)
	}
	if err != nil {
		return nil, err
	}
	if pending == nil {
		logger.Info("No files to analyse in %s", root)
		progress(domain.StageDone, 100)
		return nil, nil
	}
	progress(domain.StagePreparing, 100)

	bundle, err := o.uploader.Sync(ctx, pending.bundle, func(percent int) {
		progress(domain.StageUploading, percent)
	})
	if err != nil {
		return nil, err
	}

	result, err := o.poller.Await(ctx, bundle.ID, func(percent int) {
		progress(domain.StageAnalysing, percent)
	}, o.maxAttempts)
	if err != nil {
		return nil, err
	}
	if result.Status != domain.AnalysisComplete {
		return result, nil
	}

	entry := &domain.CacheEntry{
		Workspace: root,
		BundleID:  bundle.ID,
		Result:    result,
		Files:     pending.files,
		Valid:     true,
	}
	if err := o.cache.Commit(entry); err != nil {
		return nil, fmt.Errorf("commit cache: %w", err)
	}
	tracker.ClearHistoryUntil(checkpoint)
	if len(tracker.GetAllChangedFiles()) > 0 || len(tracker.GetRemovedFiles()) > 0 {
		logger.Debug("Files changed during the scan, cached result is stale")
		o.cache.Invalidate()
	}
	o.persist(ctx, o.cache.Entry())

	logger.Info("Analysis complete: %d issues in %d files", result.IssueCount(), len(result.FileAnalyses))
	progress(domain.StageDone, 100)
	return result, nil
}

// prepareFull creates a bundle from every eligible workspace file.
// Returns nil when there is nothing to scan.
func (o *ScanOrchestrator) prepareFull(ctx context.Context, tracker driven.FileTracker) (*pendingScan, error) {
	paths, err := tracker.GetFilesAsync(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate files: %w", err)
	}
	paths, err = o.filter(ctx, tracker.RootPath(), paths)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	files, err := o.reconciler.FullHashes(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	o.cache.IndexFiles(files)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("Creating bundle with %d files", len(files))
	bundle, err := o.bundles.CreateBundle(ctx, files.HashMap())
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}
	return &pendingScan{bundle: bundle, files: files}, nil
}

// prepareIncremental extends the cached bundle with the tracker's changes.
func (o *ScanOrchestrator) prepareIncremental(
	ctx context.Context,
	tracker driven.FileTracker,
	entry *domain.CacheEntry,
) (*pendingScan, error) {
	root := tracker.RootPath()
	changed := tracker.GetAllChangedFiles()
	removed := expandRemoved(root, tracker.GetRemovedFiles(), entry.Files)
	logger.Debug("Changes since last scan: %d added, %d modified, %d removed",
		len(changed)-len(tracker.GetChangedFiles()), len(tracker.GetChangedFiles()), len(removed))

	eligible, err := o.filter(ctx, root, changed)
	if err != nil {
		return nil, err
	}

	// Known files that are no longer eligible are dropped from the bundle.
	kept := make(map[string]struct{}, len(eligible))
	for _, path := range eligible {
		kept[path] = struct{}{}
	}
	for _, path := range changed {
		if _, ok := kept[path]; ok {
			continue
		}
		if _, known := entry.Files[domain.BundlePath(root, path)]; known {
			removed = append(removed, path)
		}
	}

	rec, err := o.reconciler.Reconcile(ctx, root, entry.BundleID, eligible, removed)
	if err != nil {
		return nil, err
	}
	o.cache.IndexFiles(rec.Files)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("Extending bundle %s: %d files, %d removed", rec.BundleID, len(rec.Files), len(rec.Removed))
	bundle, err := o.bundles.ExtendBundle(ctx, rec.BundleID, rec.Files.HashMap(), rec.Removed)
	if err != nil {
		return nil, fmt.Errorf("extend bundle: %w", err)
	}
	return &pendingScan{
		bundle: bundle,
		files:  entry.Files.Merge(rec.Files, rec.Removed),
	}, nil
}

// expandRemoved replaces each removed path that is not a known file with
// the known files below it, so removing a directory removes its contents.
func expandRemoved(root string, removed []string, known domain.FileHashes) []string {
	out := make([]string, 0, len(removed))
	for _, path := range removed {
		bundlePath := domain.BundlePath(root, path)
		if _, ok := known[bundlePath]; ok {
			out = append(out, path)
			continue
		}
		prefix := strings.TrimSuffix(bundlePath, "/") + "/"
		var below []string
		for _, bp := range known.Paths() {
			if !strings.HasPrefix(bp, prefix) {
				continue
			}
			local := known[bp].LocalPath
			if local == "" {
				local = domain.LocalPath(root, bp)
			}
			below = append(below, local)
		}
		if len(below) == 0 {
			out = append(out, path)
			continue
		}
		out = append(out, below...)
	}
	return out
}

// filter applies the file filter, then the ignore filter.
func (o *ScanOrchestrator) filter(ctx context.Context, root string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	var err error
	if o.fileFilter != nil {
		paths, err = o.fileFilter.FilterFiles(ctx, paths)
		if err != nil {
			return nil, fmt.Errorf("filter files: %w", err)
		}
	}
	if o.ignoreFilter != nil && len(paths) > 0 {
		paths, err = o.ignoreFilter.FilterFiles(ctx, root, paths)
		if err != nil {
			return nil, fmt.Errorf("ignore files: %w", err)
		}
	}
	return paths, nil
}

// persist saves the committed entry. Failures only cost a full rescan in a
// later process, so they are logged.
func (o *ScanOrchestrator) persist(ctx context.Context, entry *domain.CacheEntry) {
	if o.snapshots == nil || entry == nil {
		return
	}
	if err := o.snapshots.Save(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("Failed to persist cache: %v", err)
	}
}

// Status returns the current scan status.
func (o *ScanOrchestrator) Status(_ context.Context) driving.ScanStatus {
	o.mu.RLock()
	status := o.status
	o.mu.RUnlock()

	status.CacheValid = o.cache.IsCacheExists() && o.cache.IsCacheValid()
	return status
}

// ClearCache drops the cached analysis and its persisted snapshot.
func (o *ScanOrchestrator) ClearCache(ctx context.Context) error {
	workspace := ""
	if entry := o.cache.Entry(); entry != nil {
		workspace = entry.Workspace
	}
	o.cache.Clear()

	if o.snapshots != nil && workspace != "" {
		if err := o.snapshots.Delete(ctx, workspace); err != nil {
			return fmt.Errorf("delete cache snapshot: %w", err)
		}
	}
	logger.Debug("Cache cleared")
	return nil
}

// begin marks a scan as running. Returns false if one already is.
func (o *ScanOrchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status.Running {
		return false
	}
	o.status = driving.ScanStatus{
		ScanID:  uuid.New().String(),
		Running: true,
		Stage:   domain.StagePreparing,
	}
	return true
}

func (o *ScanOrchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = false
}

func (o *ScanOrchestrator) setProgress(stage domain.ScanStage, percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Stage = stage
	o.status.Percent = percent
}
