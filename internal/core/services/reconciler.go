package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Reconciliation is the minimal update bringing a remote bundle in sync
// with the workspace.
type Reconciliation struct {
	// BundleID is the bundle to extend.
	BundleID string

	// Files holds hashes for added and changed files only.
	Files domain.FileHashes

	// Removed lists bundle paths to drop, sorted and de-duplicated.
	Removed []string
}

// IsEmpty returns true if the reconciliation changes nothing.
func (r *Reconciliation) IsEmpty() bool {
	return len(r.Files) == 0 && len(r.Removed) == 0
}

// BundleReconciler computes bundle updates from file changes.
type BundleReconciler struct {
	hasher driven.ContentHasher
}

// NewBundleReconciler creates a new reconciler.
func NewBundleReconciler(hasher driven.ContentHasher) *BundleReconciler {
	return &BundleReconciler{hasher: hasher}
}

// Reconcile hashes addedOrChanged and converts removed to bundle paths.
// A path present in both sets counts as changed. Removed files are never
// hashed. All paths are local paths under root.
func (r *BundleReconciler) Reconcile(
	ctx context.Context,
	root string,
	cachedBundleID string,
	addedOrChanged []string,
	removed []string,
) (*Reconciliation, error) {
	if cachedBundleID == "" {
		return nil, fmt.Errorf("reconcile: %w: no cached bundle", domain.ErrInvalidInput)
	}

	changed := make(map[string]struct{}, len(addedOrChanged))
	for _, path := range addedOrChanged {
		changed[path] = struct{}{}
	}

	excluded := make(map[string]struct{}, len(removed))
	for _, path := range removed {
		if _, ok := changed[path]; ok {
			continue
		}
		excluded[domain.BundlePath(root, path)] = struct{}{}
	}
	exclusions := make([]string, 0, len(excluded))
	for path := range excluded {
		exclusions = append(exclusions, path)
	}
	sort.Strings(exclusions)

	files := make(domain.FileHashes)
	if len(changed) > 0 {
		paths := make([]string, 0, len(changed))
		for path := range changed {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		hashed, err := r.hasher.Hash(ctx, paths)
		if err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
		files = hashed
	}

	rec := &Reconciliation{
		BundleID: cachedBundleID,
		Files:    files,
		Removed:  exclusions,
	}
	if rec.IsEmpty() {
		logger.Warn("Cache invalidated without file changes, extending bundle %s unchanged", cachedBundleID)
	}
	return rec, nil
}

// FullHashes hashes every file for a new bundle.
func (r *BundleReconciler) FullHashes(ctx context.Context, paths []string) (domain.FileHashes, error) {
	hashed, err := r.hasher.Hash(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("hash files: %w", err)
	}
	return hashed, nil
}
