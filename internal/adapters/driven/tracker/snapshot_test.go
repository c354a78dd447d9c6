package tracker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-code/internal/adapters/driven/workspace"
	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

func TestSnapshot_Refresh(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("keep.js", "same")
	write("edit.js", "before")
	write("src/gone.js", "bye")

	files, err := workspace.NewOS(dir, 2)
	require.NoError(t, err)
	root := files.Root()
	ctx := context.Background()

	snap := NewSnapshot(files, nil)
	changed, err := snap.Refresh(ctx, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, snap.GetAllChangedFiles(), 3)

	previous, err := files.Hash(ctx, []string{
		filepath.Join(root, "keep.js"),
		filepath.Join(root, "edit.js"),
		filepath.Join(root, "src", "gone.js"),
	})
	require.NoError(t, err)

	t.Run("no changes", func(t *testing.T) {
		changed, err := snap.Refresh(ctx, previous)

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, snap.GetAllChangedFiles())
		assert.Empty(t, snap.GetRemovedFiles())
	})

	t.Run("added, modified and removed", func(t *testing.T) {
		write("edit.js", "after")
		write("new.js", "hello")
		require.NoError(t, os.Remove(filepath.Join(root, "src", "gone.js")))

		changed, err := snap.Refresh(ctx, previous)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []string{filepath.Join(root, "edit.js")}, snap.GetChangedFiles())
		assert.Equal(t, []string{filepath.Join(root, "edit.js"), filepath.Join(root, "new.js")}, snap.GetAllChangedFiles())
		assert.Equal(t, []string{filepath.Join(root, "src", "gone.js")}, snap.GetRemovedFiles())
	})

	t.Run("removed entry without local path", func(t *testing.T) {
		prev := previous.Clone()
		prev["/ghost.js"] = domain.FileHash{BundlePath: "/ghost.js", Hash: "abc"}

		_, err := snap.Refresh(ctx, prev)

		require.NoError(t, err)
		assert.Contains(t, snap.GetRemovedFiles(), filepath.Join(root, "ghost.js"))
	})

	t.Run("filter narrows tracked files", func(t *testing.T) {
		onlyJS := func(_ context.Context, paths []string) ([]string, error) {
			var out []string
			for _, p := range paths {
				if strings.HasSuffix(p, ".js") {
					out = append(out, p)
				}
			}
			return out, nil
		}
		write("notes.txt", "ignored")
		filtered := NewSnapshot(files, onlyJS)

		_, err := filtered.Refresh(ctx, nil)

		require.NoError(t, err)
		assert.NotContains(t, filtered.GetAllChangedFiles(), filepath.Join(root, "notes.txt"))
	})

	assert.Equal(t, root, snap.RootPath())
}
