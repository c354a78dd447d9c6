package driven

import "context"

// FileFilter narrows a file list to files the remote service can analyse
// (supported extensions, size limits).
type FileFilter interface {
	FilterFiles(ctx context.Context, paths []string) ([]string, error)
}

// IgnoreFilter drops files the user excluded from analysis.
type IgnoreFilter interface {
	FilterFiles(ctx context.Context, rootPath string, paths []string) ([]string, error)
}
