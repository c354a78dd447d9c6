package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	digest "github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Ensure Files implements the interface.
var _ driven.ContentHasher = (*Files)(nil)

// Files gives access to the files of one workspace.
type Files struct {
	fs      billy.Filesystem
	root    string
	workers int
}

// New creates workspace access over fs, which must be rooted at root.
// Workers bounds parallel hashing; values below 1 mean sequential.
func New(fs billy.Filesystem, root string, workers int) *Files {
	if workers < 1 {
		workers = 1
	}
	return &Files{fs: fs, root: filepath.Clean(root), workers: workers}
}

// NewOS creates workspace access for a directory on disk.
func NewOS(root string, workers int) (*Files, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s: %w: not a directory", abs, domain.ErrInvalidInput)
	}
	return New(osfs.New(abs), abs, workers), nil
}

// Root returns the workspace root.
func (f *Files) Root() string {
	return f.root
}

// rel converts a local path to a path within the filesystem.
func (f *Files) rel(localPath string) (string, error) {
	rel, err := filepath.Rel(f.root, localPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", localPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w: outside workspace", localPath, domain.ErrInvalidInput)
	}
	return rel, nil
}

// Stat returns file info for a local path.
func (f *Files) Stat(localPath string) (os.FileInfo, error) {
	rel, err := f.rel(localPath)
	if err != nil {
		return nil, err
	}
	return f.fs.Stat(rel)
}

// List enumerates every regular file in the workspace.
// Hidden directories such as .git are skipped; hidden files are kept since
// several of them are analysable config files.
func (f *Files) List(ctx context.Context) ([]string, error) {
	var files []string
	if err := f.walk(ctx, ".", &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (f *Files) walk(ctx context.Context, dir string, out *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := f.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		rel := filepath.Join(dir, name)
		switch {
		case entry.Mode()&os.ModeSymlink != 0:
			continue
		case entry.IsDir():
			if strings.HasPrefix(name, ".") {
				continue
			}
			if err := f.walk(ctx, rel, out); err != nil {
				return err
			}
		case entry.Mode().IsRegular():
			*out = append(*out, filepath.Join(f.root, rel))
		}
	}
	return nil
}

// Hash computes content digests for paths in parallel.
// Unreadable files are logged and skipped.
func (f *Files) Hash(ctx context.Context, paths []string) (domain.FileHashes, error) {
	var mu sync.Mutex
	result := make(domain.FileHashes, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fh, err := f.hashFile(path)
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}
			mu.Lock()
			result[fh.BundlePath] = fh
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Files) hashFile(localPath string) (domain.FileHash, error) {
	content, err := f.readFile(localPath)
	if err != nil {
		return domain.FileHash{}, err
	}
	return domain.FileHash{
		BundlePath: domain.BundlePath(f.root, localPath),
		LocalPath:  localPath,
		Hash:       Digest(content),
		Size:       int64(len(content)),
	}, nil
}

func (f *Files) readFile(localPath string) ([]byte, error) {
	rel, err := f.rel(localPath)
	if err != nil {
		return nil, err
	}
	file, err := f.fs.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return content, nil
}

// Read returns the current content of a hashed file.
// Returns domain.ErrContentChanged if the content no longer matches file.Hash.
func (f *Files) Read(ctx context.Context, file domain.FileHash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := f.readFile(file.LocalPath)
	if err != nil {
		return nil, err
	}
	if Digest(content) != file.Hash {
		return nil, fmt.Errorf("%s: %w", file.BundlePath, domain.ErrContentChanged)
	}
	return content, nil
}

// Digest returns the hex encoded sha256 digest of content.
func Digest(content []byte) string {
	return digest.FromBytes(content).Encoded()
}
