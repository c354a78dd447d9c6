package tracker

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// changeKind classifies a recorded change.
type changeKind int

const (
	changeAdded changeKind = iota
	changeModified
	changeRemoved
)

// history records file changes since the last successful scan. Every
// change is stamped with a sequence number so a scan can forget only the
// changes it consumed. It is safe for concurrent use.
type history struct {
	mu       sync.RWMutex
	seq      uint64
	added    map[string]uint64
	modified map[string]uint64
	removed  map[string]uint64
}

func newHistory() *history {
	h := &history{}
	h.reset()
	return h
}

func (h *history) reset() {
	h.added = make(map[string]uint64)
	h.modified = make(map[string]uint64)
	h.removed = make(map[string]uint64)
}

// record stores a change for path.
// A file added since the last scan stays added when it is written again,
// and re-creating a removed file moves it back to added.
func (h *history) record(kind changeKind, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	switch kind {
	case changeAdded:
		delete(h.removed, path)
		h.added[path] = h.seq
	case changeModified:
		if _, ok := h.added[path]; ok {
			h.added[path] = h.seq
			return
		}
		h.modified[path] = h.seq
	case changeRemoved:
		h.removed[path] = h.seq
	}
}

// empty reports whether no change has been recorded.
func (h *history) empty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.added) == 0 && len(h.modified) == 0 && len(h.removed) == 0
}

// GetChangedFiles returns files modified since the last scan.
func (h *history) GetChangedFiles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.modified)
}

// GetAllChangedFiles returns files added or modified since the last scan.
func (h *history) GetAllChangedFiles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	all := make(map[string]uint64, len(h.added)+len(h.modified))
	for path, seq := range h.added {
		all[path] = seq
	}
	for path, seq := range h.modified {
		all[path] = seq
	}
	return sortedKeys(all)
}

// GetRemovedFiles returns files removed since the last scan.
func (h *history) GetRemovedFiles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.removed)
}

// ClearHistory forgets every recorded change.
func (h *history) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset()
}

// Checkpoint returns the sequence number of the latest change.
func (h *history) Checkpoint() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// ClearHistoryUntil forgets changes recorded at or before checkpoint.
func (h *history) ClearHistoryUntil(checkpoint uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range []map[string]uint64{h.added, h.modified, h.removed} {
		for path, seq := range set {
			if seq <= checkpoint {
				delete(set, path)
			}
		}
	}
}

func sortedKeys(set map[string]uint64) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// inHiddenDir reports whether a path relative to the workspace root lies
// inside a hidden directory such as .git.
func inHiddenDir(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." || dir == "/" {
		return false
	}
	for _, part := range strings.Split(dir, "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
