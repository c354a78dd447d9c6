package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

func completeEntry(bundleID string) *domain.CacheEntry {
	return &domain.CacheEntry{
		BundleID: bundleID,
		Result: &domain.AnalysisResult{
			Status:       domain.AnalysisComplete,
			Progress:     1,
			FileAnalyses: []domain.FileAnalysis{{FileName: "app1.js"}},
		},
		Files: domain.FileHashes{
			"/app1.js": {BundlePath: "/app1.js", LocalPath: "/ws/app1.js", Hash: "h1"},
		},
		Valid: true,
	}
}

func TestNewCodeCache(t *testing.T) {
	cache := NewCodeCache("/ws")

	require.NotNil(t, cache)
	assert.Equal(t, "/ws", cache.Workspace())
	assert.False(t, cache.IsCacheExists())
	assert.False(t, cache.IsCacheValid())
	assert.Nil(t, cache.GetCachedAnalysisResult())
	assert.Empty(t, cache.GetCachedBundleID())
	assert.Empty(t, cache.GetCachedFiles())
	assert.Nil(t, cache.Entry())
}

func TestCodeCache_Commit(t *testing.T) {
	t.Run("stores entry", func(t *testing.T) {
		cache := NewCodeCache("/ws")

		require.NoError(t, cache.Commit(completeEntry("bundle-1")))

		assert.True(t, cache.IsCacheExists())
		assert.True(t, cache.IsCacheValid())
		assert.Equal(t, "bundle-1", cache.GetCachedBundleID())
		assert.Len(t, cache.GetCachedAnalysisResult().FileAnalyses, 1)
		assert.Equal(t, "/ws", cache.Entry().Workspace)
		assert.False(t, cache.Entry().UpdatedAt.IsZero())
	})

	t.Run("indexes files", func(t *testing.T) {
		cache := NewCodeCache("/ws")

		require.NoError(t, cache.Commit(completeEntry("bundle-1")))

		fh, ok := cache.ResolveFile("/app1.js")
		require.True(t, ok)
		assert.Equal(t, "h1", fh.Hash)
	})

	t.Run("replaces wholesale", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		require.NoError(t, cache.Commit(completeEntry("bundle-1")))
		first := cache.Entry()

		require.NoError(t, cache.Commit(completeEntry("bundle-2")))

		assert.Equal(t, "bundle-2", cache.GetCachedBundleID())
		assert.Equal(t, "bundle-1", first.BundleID, "previous snapshot must not change")
	})

	t.Run("rejects valid entry without complete result", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		entry := completeEntry("bundle-1")
		entry.Result = &domain.AnalysisResult{Status: domain.AnalysisFailed}

		err := cache.Commit(entry)

		assert.True(t, errors.Is(err, domain.ErrInvalidCacheEntry))
		assert.False(t, cache.IsCacheExists())
	})

	t.Run("keeps explicit timestamp", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		entry := completeEntry("bundle-1")
		entry.UpdatedAt = time.Unix(1700000000, 0)

		require.NoError(t, cache.Commit(entry))

		assert.Equal(t, int64(1700000000), cache.Entry().UpdatedAt.Unix())
	})
}

func TestCodeCache_Invalidate(t *testing.T) {
	t.Run("marks entry invalid", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		require.NoError(t, cache.Commit(completeEntry("bundle-1")))
		before := cache.Entry()

		cache.Invalidate()

		assert.True(t, cache.IsCacheExists())
		assert.False(t, cache.IsCacheValid())
		assert.Equal(t, "bundle-1", cache.GetCachedBundleID())
		assert.True(t, before.Valid, "snapshot taken before invalidation must not change")
	})

	t.Run("no-op when empty", func(t *testing.T) {
		cache := NewCodeCache("/ws")

		cache.Invalidate()

		assert.False(t, cache.IsCacheExists())
	})

	t.Run("concurrent invalidation", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		require.NoError(t, cache.Commit(completeEntry("bundle-1")))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cache.Invalidate()
				_ = cache.IsCacheValid()
			}()
		}
		wg.Wait()

		assert.False(t, cache.IsCacheValid())
	})
}

func TestCodeCache_Clear(t *testing.T) {
	cache := NewCodeCache("/ws")
	require.NoError(t, cache.Commit(completeEntry("bundle-1")))

	cache.Clear()

	assert.False(t, cache.IsCacheExists())
	_, ok := cache.ResolveFile("/app1.js")
	assert.False(t, ok)
}

func TestCodeCache_Restore(t *testing.T) {
	t.Run("restores entry of same workspace", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		entry := completeEntry("bundle-1")
		entry.Workspace = "/ws"

		require.NoError(t, cache.Restore(entry))

		assert.True(t, cache.IsCacheValid())
	})

	t.Run("rejects other workspace", func(t *testing.T) {
		cache := NewCodeCache("/ws")
		entry := completeEntry("bundle-1")
		entry.Workspace = "/other"

		err := cache.Restore(entry)

		assert.True(t, errors.Is(err, domain.ErrInvalidCacheEntry))
		assert.False(t, cache.IsCacheExists())
	})
}

func TestCodeCache_IndexFiles(t *testing.T) {
	cache := NewCodeCache("/ws")

	cache.IndexFiles(domain.FileHashes{
		"/a.js": {BundlePath: "/a.js", Hash: "ha"},
	})
	cache.IndexFiles(domain.FileHashes{
		"/a.js": {BundlePath: "/a.js", Hash: "ha2"},
		"/b.js": {BundlePath: "/b.js", Hash: "hb"},
	})

	a, ok := cache.ResolveFile("/a.js")
	require.True(t, ok)
	assert.Equal(t, "ha2", a.Hash)
	_, ok = cache.ResolveFile("/b.js")
	assert.True(t, ok)
	_, ok = cache.ResolveFile("/missing.js")
	assert.False(t, ok)
}
