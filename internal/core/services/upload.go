package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// UploadCoordinator uploads the content a remote bundle is missing.
type UploadCoordinator struct {
	bundles       driven.BundleService
	hasher        driven.ContentHasher
	cache         driven.CodeCache
	batchSize     int
	maxBatchBytes int64
}

// NewUploadCoordinator creates a new upload coordinator.
// Missing bundle paths are resolved through the cache content index.
func NewUploadCoordinator(
	bundles driven.BundleService,
	hasher driven.ContentHasher,
	cache driven.CodeCache,
	settings domain.UploadSettings,
) *UploadCoordinator {
	batchSize := settings.BatchSize
	if batchSize < 1 {
		batchSize = domain.DefaultBatchSize
	}
	maxBatchBytes := settings.MaxBatchBytes
	if maxBatchBytes < 1 {
		maxBatchBytes = domain.DefaultMaxBatchBytes
	}
	return &UploadCoordinator{
		bundles:       bundles,
		hasher:        hasher,
		cache:         cache,
		batchSize:     batchSize,
		maxBatchBytes: maxBatchBytes,
	}
}

// Sync uploads missing content for bundle, then confirms with the remote
// service. Files still missing afterwards are logged; the remote service
// decides whether the analysis can proceed.
func (u *UploadCoordinator) Sync(ctx context.Context, bundle *domain.Bundle, onProgress func(percent int)) (*domain.Bundle, error) {
	if bundle == nil || bundle.ID == "" {
		return nil, fmt.Errorf("sync bundle: %w: no bundle", domain.ErrInvalidInput)
	}
	if !bundle.HasMissingFiles() {
		report(onProgress, 100)
		return bundle, nil
	}

	if err := u.UploadMissingFiles(ctx, bundle, onProgress); err != nil {
		return nil, err
	}

	checked, err := u.bundles.CheckBundle(ctx, bundle.ID)
	if err != nil {
		return nil, fmt.Errorf("check bundle: %w", err)
	}
	if checked.HasMissingFiles() {
		logger.Warn("Bundle %s still misses %d files after upload", checked.ID, len(checked.MissingFiles))
	}
	return checked, nil
}

// UploadMissingFiles uploads the content of bundle.MissingFiles in batches
// bounded by file count and size. Progress never decreases. Files that
// cannot be resolved or read, and batches that fail, are logged and skipped.
func (u *UploadCoordinator) UploadMissingFiles(ctx context.Context, bundle *domain.Bundle, onProgress func(percent int)) error {
	if !bundle.HasMissingFiles() {
		return nil
	}

	var files []domain.FileHash
	for _, path := range bundle.MissingFiles {
		fh, ok := u.cache.ResolveFile(path)
		if !ok {
			logger.Warn("Cannot resolve missing file %s, skipping", path)
			continue
		}
		files = append(files, fh)
	}

	batches := u.batches(files)
	total := len(files)
	done := 0
	report(onProgress, 0)

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		contents := make([]domain.FileContent, 0, len(batch))
		for _, fh := range batch {
			content, err := u.hasher.Read(ctx, fh)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.Is(err, domain.ErrContentChanged) {
					logger.Warn("%s changed since hashing, skipping upload", fh.BundlePath)
				} else {
					logger.Warn("Cannot read %s: %v", fh.BundlePath, err)
				}
				continue
			}
			contents = append(contents, domain.FileContent{Hash: fh.Hash, Content: content})
		}

		if len(contents) > 0 {
			if err := u.bundles.UploadFiles(ctx, bundle.ID, contents); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("Upload of %d files to bundle %s failed: %v", len(contents), bundle.ID, err)
			}
		}

		done += len(batch)
		report(onProgress, done*100/total)
	}

	logger.Debug("Uploaded %d missing files to bundle %s in %d batches", total, bundle.ID, len(batches))
	return nil
}

// batches splits files into groups of at most batchSize files and
// maxBatchBytes bytes. A file larger than maxBatchBytes forms its own batch.
func (u *UploadCoordinator) batches(files []domain.FileHash) [][]domain.FileHash {
	var (
		batches [][]domain.FileHash
		current []domain.FileHash
		size    int64
	)
	for _, fh := range files {
		if len(current) > 0 && (len(current) >= u.batchSize || size+fh.Size > u.maxBatchBytes) {
			batches = append(batches, current)
			current, size = nil, 0
		}
		current = append(current, fh)
		size += fh.Size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func report(onProgress func(percent int), percent int) {
	if onProgress != nil {
		onProgress(percent)
	}
}
