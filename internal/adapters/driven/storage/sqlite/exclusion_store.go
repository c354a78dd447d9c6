package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// exclusionStore implements driven.ExclusionStore.
type exclusionStore struct {
	store *Store
}

var _ driven.ExclusionStore = (*exclusionStore)(nil)

// Add stores an exclusion. Excluding a path twice keeps the first ID and
// replaces the reason.
func (s *exclusionStore) Add(ctx context.Context, exclusion *domain.Exclusion) error {
	if exclusion == nil || exclusion.ID == "" || exclusion.Workspace == "" || exclusion.Path == "" {
		return fmt.Errorf("%w: exclusion needs an ID, workspace and path", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO exclusions (id, workspace, path, reason, excluded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(workspace, path) DO UPDATE SET reason = excluded.reason
	`, exclusion.ID, exclusion.Workspace, exclusion.Path, exclusion.Reason, formatTime(exclusion.ExcludedAt))
	if err != nil {
		return fmt.Errorf("saving exclusion: %w", err)
	}
	return nil
}

// Remove deletes an exclusion by ID.
func (s *exclusionStore) Remove(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM exclusions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting exclusion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting exclusion: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns the exclusions of a workspace ordered by path.
func (s *exclusionStore) List(ctx context.Context, workspace string) ([]domain.Exclusion, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, path, reason, excluded_at
		FROM exclusions WHERE workspace = ? ORDER BY path
	`, workspace)
	if err != nil {
		return nil, fmt.Errorf("querying exclusions: %w", err)
	}
	defer rows.Close()

	exclusions := make([]domain.Exclusion, 0)
	for rows.Next() {
		var (
			e          domain.Exclusion
			excludedAt string
		)
		if err := rows.Scan(&e.ID, &e.Path, &e.Reason, &excludedAt); err != nil {
			return nil, fmt.Errorf("scanning exclusion: %w", err)
		}
		if e.ExcludedAt, err = parseTime(excludedAt); err != nil {
			return nil, err
		}
		e.Workspace = workspace
		exclusions = append(exclusions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exclusions: %w", err)
	}
	return exclusions, nil
}
