package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-code/internal/adapters/driven/workspace"
	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileTracker = (*Watcher)(nil)

// Watcher tracks workspace changes with fsnotify.
type Watcher struct {
	*history
	files *workspace.Files

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	changes  chan struct{}
	onChange func()
	closed   bool

	// known holds the files seen so far, so removing a directory can be
	// expanded to the files it contained.
	knownMu sync.Mutex
	known   map[string]struct{}
}

// NewWatcher creates a watcher for the workspace. Call Watch to start it.
func NewWatcher(files *workspace.Files) *Watcher {
	return &Watcher{
		history: newHistory(),
		files:   files,
		known:   make(map[string]struct{}),
	}
}

// RootPath returns the workspace root.
func (w *Watcher) RootPath() string {
	return w.files.Root()
}

// GetFilesAsync enumerates every file in the workspace.
func (w *Watcher) GetFilesAsync(ctx context.Context) ([]string, error) {
	return w.files.List(ctx)
}

// OnChange registers fn to run synchronously for every recorded change,
// before the Changes channel is signalled.
func (w *Watcher) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Watch starts watching the workspace recursively.
// The returned channel receives a signal whenever changes were recorded;
// signals coalesce while unread. It closes when ctx is cancelled or the
// watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, domain.ErrWatcherClosed
	}
	if w.fsw != nil {
		return w.changes, nil
	}

	root := w.files.Root()
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s: %w: not a directory", root, domain.ErrInvalidInput)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if _, err := w.addTree(fsw, root, false); err != nil {
		fsw.Close()
		return nil, err
	}

	w.fsw = fsw
	w.changes = make(chan struct{}, 1)
	go w.run(ctx, fsw, w.changes)

	logger.Debug("Watching %s", root)
	return w.changes, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, changes chan struct{}) {
	defer close(changes)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.handleFsEvent(fsw, event) {
				w.notify(changes)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

func (w *Watcher) notify(changes chan struct{}) {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn()
	}
	select {
	case changes <- struct{}{}:
	default:
	}
}

// handleFsEvent records the change described by event.
// Returns true if a change was recorded.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.files.Root(), event.Name)
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) || inHiddenDir(rel) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil {
			return false
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") || fsw == nil {
				return false
			}
			added, err := w.addTree(fsw, event.Name, true)
			if err != nil {
				logger.Warn("Failed to watch %s: %v", event.Name, err)
			}
			return added > 0
		}
		if !info.Mode().IsRegular() {
			return false
		}
		w.remember(event.Name)
		w.record(changeAdded, event.Name)
		return true

	case event.Has(fsnotify.Write):
		info, err := os.Lstat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
		w.remember(event.Name)
		w.record(changeModified, event.Name)
		return true

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		gone := w.forget(event.Name)
		if len(gone) == 0 {
			w.record(changeRemoved, event.Name)
			return true
		}
		for _, path := range gone {
			w.record(changeRemoved, path)
		}
		if fsw != nil && (len(gone) > 1 || gone[0] != event.Name) {
			// The directory left the workspace; its watch may still be registered.
			_ = fsw.Remove(event.Name)
		}
		return true
	}
	return false
}

func (w *Watcher) remember(path string) {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	w.known[path] = struct{}{}
}

// forget drops path and every known file below it.
// Returns the dropped files in order.
func (w *Watcher) forget(path string) []string {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()

	prefix := path + string(filepath.Separator)
	var gone []string
	for known := range w.known {
		if known == path || strings.HasPrefix(known, prefix) {
			gone = append(gone, known)
			delete(w.known, known)
		}
	}
	sort.Strings(gone)
	return gone
}

// addTree watches dir and its non-hidden subdirectories. When recordFiles is
// set, regular files found are recorded as added. Returns the number of
// files recorded.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, recordFiles bool) (int, error) {
	if err := fsw.Add(dir); err != nil {
		return 0, fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	added := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.Type()&os.ModeSymlink != 0:
			continue
		case entry.IsDir():
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			n, err := w.addTree(fsw, path, recordFiles)
			added += n
			if err != nil {
				return added, err
			}
		case entry.Type().IsRegular():
			w.remember(path)
			if recordFiles {
				w.record(changeAdded, path)
				added++
			}
		}
	}
	return added, nil
}

// Close stops watching. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
