package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

func testExclusion(id, workspace, path string) *domain.Exclusion {
	return &domain.Exclusion{
		ID:         id,
		Workspace:  workspace,
		Path:       path,
		Reason:     "generated",
		ExcludedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestExclusionStore_AddList(t *testing.T) {
	store := setupTestStore(t)
	exclusions := store.ExclusionStore()
	ctx := context.Background()

	require.NoError(t, exclusions.Add(ctx, testExclusion("e2", "/ws", "/vendor/lib.js")))
	require.NoError(t, exclusions.Add(ctx, testExclusion("e1", "/ws", "/app.min.js")))
	require.NoError(t, exclusions.Add(ctx, testExclusion("e3", "/other", "/app.js")))

	got, err := exclusions.List(ctx, "/ws")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/app.min.js", got[0].Path)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "/ws", got[0].Workspace)
	assert.Equal(t, "generated", got[0].Reason)
	assert.True(t, got[0].ExcludedAt.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)))
	assert.Equal(t, "/vendor/lib.js", got[1].Path)

	none, err := exclusions.List(ctx, "/nowhere")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExclusionStore_AddSamePath(t *testing.T) {
	store := setupTestStore(t)
	exclusions := store.ExclusionStore()
	ctx := context.Background()
	require.NoError(t, exclusions.Add(ctx, testExclusion("e1", "/ws", "/app.js")))

	again := testExclusion("e2", "/ws", "/app.js")
	again.Reason = "noisy"
	require.NoError(t, exclusions.Add(ctx, again))

	got, err := exclusions.List(ctx, "/ws")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "noisy", got[0].Reason)
}

func TestExclusionStore_AddInvalid(t *testing.T) {
	exclusions := setupTestStore(t).ExclusionStore()
	ctx := context.Background()

	assert.True(t, errors.Is(exclusions.Add(ctx, nil), domain.ErrInvalidInput))
	assert.True(t, errors.Is(exclusions.Add(ctx, testExclusion("", "/ws", "/a.js")), domain.ErrInvalidInput))
	assert.True(t, errors.Is(exclusions.Add(ctx, testExclusion("e1", "", "/a.js")), domain.ErrInvalidInput))
	assert.True(t, errors.Is(exclusions.Add(ctx, testExclusion("e1", "/ws", "")), domain.ErrInvalidInput))
}

func TestExclusionStore_Remove(t *testing.T) {
	exclusions := setupTestStore(t).ExclusionStore()
	ctx := context.Background()
	require.NoError(t, exclusions.Add(ctx, testExclusion("e1", "/ws", "/app.js")))

	require.NoError(t, exclusions.Remove(ctx, "e1"))

	got, err := exclusions.List(ctx, "/ws")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, errors.Is(exclusions.Remove(ctx, "e1"), domain.ErrNotFound))
}
