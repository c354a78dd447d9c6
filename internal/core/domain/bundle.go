package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// Bundle is the remote analysis unit for one workspace snapshot.
type Bundle struct {
	// ID is the opaque identifier issued by the remote service.
	ID string

	// MissingFiles lists bundle paths the remote service has no content for.
	MissingFiles []string
}

// HasMissingFiles returns true if the remote service still needs content.
func (b *Bundle) HasMissingFiles() bool {
	return b != nil && len(b.MissingFiles) > 0
}

// FileHash records what the remote bundle knows about one file.
type FileHash struct {
	// BundlePath is the workspace-relative path sent to the remote service.
	BundlePath string

	// LocalPath is the absolute path on disk.
	LocalPath string

	// Hash is the hex encoded content digest.
	Hash string

	// Size is the content length in bytes.
	Size int64
}

// FileHashes maps bundle paths to their hash entries.
type FileHashes map[string]FileHash

// HashMap returns the path to hash mapping sent to the remote service.
func (h FileHashes) HashMap() map[string]string {
	m := make(map[string]string, len(h))
	for path, fh := range h {
		m[path] = fh.Hash
	}
	return m
}

// Paths returns the bundle paths in sorted order.
func (h FileHashes) Paths() []string {
	paths := make([]string, 0, len(h))
	for path := range h {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a shallow copy.
func (h FileHashes) Clone() FileHashes {
	c := make(FileHashes, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// Merge returns a copy of h with removed paths dropped and updated entries applied.
func (h FileHashes) Merge(updated FileHashes, removed []string) FileHashes {
	merged := h.Clone()
	for _, path := range removed {
		delete(merged, path)
	}
	for path, fh := range updated {
		merged[path] = fh
	}
	return merged
}

// FileContent is one file uploaded to the remote service.
type FileContent struct {
	// Hash is the digest the remote service expects for Content.
	Hash string

	// Content is the raw file content.
	Content []byte
}

// BundlePath converts a local path to the remote-relative form:
// relative to root, forward slashes, leading slash.
// Paths outside root keep their cleaned slash form.
func BundlePath(root, localPath string) string {
	rel, err := filepath.Rel(root, localPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = localPath
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// LocalPath converts a bundle path back to a local path under root.
func LocalPath(root, bundlePath string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(bundlePath, "/")))
}
