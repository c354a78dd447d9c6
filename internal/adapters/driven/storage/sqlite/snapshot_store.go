package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// snapshotStore implements driven.CacheSnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.CacheSnapshotStore = (*snapshotStore)(nil)

// Load returns the entry for a workspace.
// Returns domain.ErrNotFound if no entry exists.
func (s *snapshotStore) Load(ctx context.Context, workspace string) (*domain.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT bundle_id, status, progress, file_analyses, valid, updated_at
		FROM cache_entries WHERE workspace = ?
	`, workspace)

	var (
		bundleID, status, analysesJSON, updatedAt string
		progress                                  float64
		valid                                     int
	)
	err := row.Scan(&bundleID, &status, &progress, &analysesJSON, &valid, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	analysisStatus, err := domain.ParseAnalysisStatus(status)
	if err != nil {
		return nil, fmt.Errorf("cache entry status: %w", err)
	}
	var analyses []domain.FileAnalysis
	if err := json.Unmarshal([]byte(analysesJSON), &analyses); err != nil {
		return nil, fmt.Errorf("unmarshalling file analyses: %w", err)
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	files, err := s.loadFiles(ctx, workspace)
	if err != nil {
		return nil, err
	}

	return &domain.CacheEntry{
		Workspace: workspace,
		BundleID:  bundleID,
		Result: &domain.AnalysisResult{
			Status:       analysisStatus,
			Progress:     progress,
			FileAnalyses: analyses,
		},
		Files:     files,
		Valid:     valid == 1,
		UpdatedAt: updated,
	}, nil
}

func (s *snapshotStore) loadFiles(ctx context.Context, workspace string) (domain.FileHashes, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT bundle_path, local_path, hash, size
		FROM cache_files WHERE workspace = ?
	`, workspace)
	if err != nil {
		return nil, fmt.Errorf("querying cache files: %w", err)
	}
	defer rows.Close()

	files := make(domain.FileHashes)
	for rows.Next() {
		var fh domain.FileHash
		if err := rows.Scan(&fh.BundlePath, &fh.LocalPath, &fh.Hash, &fh.Size); err != nil {
			return nil, fmt.Errorf("scanning cache file: %w", err)
		}
		files[fh.BundlePath] = fh
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache files: %w", err)
	}
	return files, nil
}

// Save stores or replaces the entry for entry.Workspace.
// The entry and its files are written in one transaction.
func (s *snapshotStore) Save(ctx context.Context, entry *domain.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Workspace == "" {
		return fmt.Errorf("%w: cache entry without workspace", domain.ErrInvalidInput)
	}

	analysesJSON, err := json.Marshal(entry.Result.FileAnalyses)
	if err != nil {
		return fmt.Errorf("marshalling file analyses: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_entries (workspace, bundle_id, status, progress, file_analyses, valid, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace) DO UPDATE SET
			bundle_id = excluded.bundle_id,
			status = excluded.status,
			progress = excluded.progress,
			file_analyses = excluded.file_analyses,
			valid = excluded.valid,
			updated_at = excluded.updated_at
	`, entry.Workspace, entry.BundleID, entry.Result.Status.String(), entry.Result.Progress,
		string(analysesJSON), boolToInt(entry.Valid), formatTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_files WHERE workspace = ?", entry.Workspace); err != nil {
		return fmt.Errorf("clearing cache files: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cache_files (workspace, bundle_path, local_path, hash, size)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing cache file insert: %w", err)
	}
	defer stmt.Close()

	for _, bundlePath := range entry.Files.Paths() {
		fh := entry.Files[bundlePath]
		if _, err := stmt.ExecContext(ctx, entry.Workspace, bundlePath, fh.LocalPath, fh.Hash, fh.Size); err != nil {
			return fmt.Errorf("saving cache file %s: %w", bundlePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a workspace. Deleting a missing entry is not an error.
func (s *snapshotStore) Delete(ctx context.Context, workspace string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_files WHERE workspace = ?", workspace); err != nil {
		return fmt.Errorf("deleting cache files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_entries WHERE workspace = ?", workspace); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}
