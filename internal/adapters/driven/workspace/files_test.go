package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)


func newMemFiles(t *testing.T, files map[string]string) (*Files, string) {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
	}
	root := filepath.Join(string(filepath.Separator), "ws")
	return New(fs, root, 4), root
}

func TestDigest(t *testing.T) {
	// sha256("") is well known
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(nil))
	assert.Len(t, Digest([]byte("console.log(1)")), 64)
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
	assert.Equal(t, Digest([]byte("same")), Digest([]byte("same")))
}

func TestFiles_Hash(t *testing.T) {
	t.Run("hashes files keyed by bundle path", func(t *testing.T) {
		files, root := newMemFiles(t, map[string]string{
			"app1.js":        "console.log(1)",
			"src/app2.js":    "console.log(2)",
			"src/ignored.md": "# readme",
		})

		hashes, err := files.Hash(context.Background(), []string{
			filepath.Join(root, "app1.js"),
			filepath.Join(root, "src", "app2.js"),
		})

		require.NoError(t, err)
		require.Len(t, hashes, 2)
		assert.Equal(t, Digest([]byte("console.log(1)")), hashes["/app1.js"].Hash)
		assert.Equal(t, filepath.Join(root, "src", "app2.js"), hashes["/src/app2.js"].LocalPath)
		assert.Equal(t, int64(len("console.log(2)")), hashes["/src/app2.js"].Size)
	})

	t.Run("skips unreadable files", func(t *testing.T) {
		files, root := newMemFiles(t, map[string]string{"app1.js": "a"})

		hashes, err := files.Hash(context.Background(), []string{
			filepath.Join(root, "app1.js"),
			filepath.Join(root, "missing.js"),
			filepath.Join(string(filepath.Separator), "elsewhere", "x.js"),
		})

		require.NoError(t, err)
		assert.Len(t, hashes, 1)
		assert.Contains(t, hashes, "/app1.js")
	})

	t.Run("empty input", func(t *testing.T) {
		files, _ := newMemFiles(t, nil)

		hashes, err := files.Hash(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, hashes)
	})

	t.Run("cancelled context", func(t *testing.T) {
		files, root := newMemFiles(t, map[string]string{"app1.js": "a"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := files.Hash(ctx, []string{filepath.Join(root, "app1.js")})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFiles_Read(t *testing.T) {
	files, root := newMemFiles(t, map[string]string{"app1.js": "console.log(1)"})
	hashes, err := files.Hash(context.Background(), []string{filepath.Join(root, "app1.js")})
	require.NoError(t, err)
	fh := hashes["/app1.js"]

	t.Run("returns content", func(t *testing.T) {
		content, err := files.Read(context.Background(), fh)

		require.NoError(t, err)
		assert.Equal(t, "console.log(1)", string(content))
	})

	t.Run("detects changed content", func(t *testing.T) {
		stale := fh
		stale.Hash = "deadbeef"

		_, err := files.Read(context.Background(), stale)

		assert.True(t, errors.Is(err, domain.ErrContentChanged))
	})
}

func TestFiles_List(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".dcignore"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "lib.js"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0644))

	files, err := NewOS(root, 2)
	require.NoError(t, err)

	list, err := files.List(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(files.Root(), "app.js"),
		filepath.Join(files.Root(), ".dcignore"),
		filepath.Join(files.Root(), "src", "lib.js"),
	}, list)
}

func TestNewOS(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewOS(filepath.Join(t.TempDir(), "missing"), 1)
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		_, err := NewOS(path, 1)

		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
