package workspace

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Ensure ExtensionFilter implements the interface.
var _ driven.FileFilter = (*ExtensionFilter)(nil)

// ExtensionFilter keeps files with a supported extension or config file name
// whose size is within limits.
type ExtensionFilter struct {
	files   *Files
	maxSize int64

	mu          sync.RWMutex
	extensions  map[string]struct{}
	configFiles map[string]struct{}
}

// NewExtensionFilter creates a filter for the given supported files.
func NewExtensionFilter(files *Files, supported driven.SupportedFiles, maxSize int64) *ExtensionFilter {
	f := &ExtensionFilter{files: files, maxSize: maxSize}
	f.SetSupported(supported)
	return f
}

// SetSupported replaces the supported extensions and config files.
func (f *ExtensionFilter) SetSupported(supported driven.SupportedFiles) {
	extensions := make(map[string]struct{}, len(supported.Extensions))
	for _, ext := range supported.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}
	configFiles := make(map[string]struct{}, len(supported.ConfigFiles))
	for _, name := range supported.ConfigFiles {
		configFiles[strings.TrimPrefix(name, "/")] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.extensions = extensions
	f.configFiles = configFiles
}

// Supports reports whether the file name is supported, ignoring size.
func (f *ExtensionFilter) Supports(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	base := filepath.Base(path)
	if _, ok := f.configFiles[base]; ok {
		return true
	}
	_, ok := f.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// FilterFiles keeps supported, non-empty files no larger than the size limit.
func (f *ExtensionFilter) FilterFiles(ctx context.Context, paths []string) ([]string, error) {
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.Supports(path) {
			continue
		}
		info, err := f.files.Stat(path)
		if err != nil {
			logger.Debug("Skipping %s: %v", path, err)
			continue
		}
		if info.IsDir() || info.Size() == 0 {
			continue
		}
		if f.maxSize > 0 && info.Size() > f.maxSize {
			logger.Debug("Skipping %s: %d bytes exceeds limit", path, info.Size())
			continue
		}
		result = append(result, path)
	}
	return result, nil
}
