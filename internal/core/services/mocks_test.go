package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

const testRoot = "/ws"

// --- Hand-written fakes ---

// fakeTracker implements driven.FileTracker over fixed path lists.
// Paths passed to touch are stamped after any checkpoint already taken.
type fakeTracker struct {
	mu       sync.Mutex
	all      []string
	added    []string
	modified []string
	removed  []string
	listErr  error
	cleared  int
	seq      uint64
	stamps   map[string]uint64
}

var _ driven.FileTracker = (*fakeTracker)(nil)

func (t *fakeTracker) RootPath() string { return testRoot }

func (t *fakeTracker) GetChangedFiles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.modified...)
}

func (t *fakeTracker) GetAllChangedFiles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append(append([]string{}, t.added...), t.modified...)
}

func (t *fakeTracker) GetRemovedFiles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.removed...)
}

func (t *fakeTracker) GetFilesAsync(_ context.Context) ([]string, error) {
	return t.all, t.listErr
}

func (t *fakeTracker) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.added, t.modified, t.removed = nil, nil, nil
}

func (t *fakeTracker) Checkpoint() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

func (t *fakeTracker) ClearHistoryUntil(checkpoint uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleared++
	later := func(paths []string) []string {
		var kept []string
		for _, path := range paths {
			if t.stamps[path] > checkpoint {
				kept = append(kept, path)
			}
		}
		return kept
	}
	t.added, t.modified, t.removed = later(t.added), later(t.modified), later(t.removed)
}

// touch records a modification of path.
func (t *fakeTracker) touch(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stamps == nil {
		t.stamps = make(map[string]uint64)
	}
	t.seq++
	t.stamps[path] = t.seq
	t.modified = append(t.modified, path)
}

// fakeHasher hashes an in-memory workspace and records every hashed path.
type fakeHasher struct {
	mu       sync.Mutex
	contents map[string]string
	hashed   []string
	readErr  map[string]error
}

var _ driven.ContentHasher = (*fakeHasher)(nil)

func newFakeHasher(contents map[string]string) *fakeHasher {
	return &fakeHasher{contents: contents, readErr: make(map[string]error)}
}

func local(name string) string {
	return testRoot + "/" + name
}

func (h *fakeHasher) Hash(ctx context.Context, paths []string) (domain.FileHashes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(domain.FileHashes)
	for _, path := range paths {
		content, ok := h.contents[path]
		if !ok {
			continue
		}
		h.hashed = append(h.hashed, path)
		fh := domain.FileHash{
			BundlePath: domain.BundlePath(testRoot, path),
			LocalPath:  path,
			Hash:       "hash-" + content,
			Size:       int64(len(content)),
		}
		out[fh.BundlePath] = fh
	}
	return out, nil
}

func (h *fakeHasher) Read(_ context.Context, file domain.FileHash) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.readErr[file.LocalPath]; err != nil {
		return nil, err
	}
	return []byte(h.contents[file.LocalPath]), nil
}

func (h *fakeHasher) hashedPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	paths := append([]string(nil), h.hashed...)
	sort.Strings(paths)
	return paths
}

// fakeSnapshots implements driven.CacheSnapshotStore.
type fakeSnapshots struct {
	saved   []*domain.CacheEntry
	deleted []string
}

var _ driven.CacheSnapshotStore = (*fakeSnapshots)(nil)

func (s *fakeSnapshots) Load(_ context.Context, _ string) (*domain.CacheEntry, error) {
	if len(s.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *fakeSnapshots) Save(_ context.Context, entry *domain.CacheEntry) error {
	s.saved = append(s.saved, entry)
	return nil
}

func (s *fakeSnapshots) Delete(_ context.Context, workspace string) error {
	s.deleted = append(s.deleted, workspace)
	return nil
}

// --- testify mocks for the remote services ---

type mockBundles struct {
	mock.Mock
}

var _ driven.BundleService = (*mockBundles)(nil)

func (m *mockBundles) CreateBundle(ctx context.Context, files map[string]string) (*domain.Bundle, error) {
	args := m.Called(ctx, files)
	bundle, _ := args.Get(0).(*domain.Bundle)
	return bundle, args.Error(1)
}

func (m *mockBundles) ExtendBundle(ctx context.Context, bundleID string, files map[string]string, removed []string) (*domain.Bundle, error) {
	args := m.Called(ctx, bundleID, files, removed)
	bundle, _ := args.Get(0).(*domain.Bundle)
	return bundle, args.Error(1)
}

func (m *mockBundles) CheckBundle(ctx context.Context, bundleID string) (*domain.Bundle, error) {
	args := m.Called(ctx, bundleID)
	bundle, _ := args.Get(0).(*domain.Bundle)
	return bundle, args.Error(1)
}

func (m *mockBundles) UploadFiles(ctx context.Context, bundleID string, files []domain.FileContent) error {
	args := m.Called(ctx, bundleID, files)
	return args.Error(0)
}

type mockAnalysis struct {
	mock.Mock
}

var _ driven.AnalysisService = (*mockAnalysis)(nil)

func (m *mockAnalysis) GetAnalysis(ctx context.Context, bundleID string) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, bundleID)
	result, _ := args.Get(0).(*domain.AnalysisResult)
	return result, args.Error(1)
}

// --- helpers ---

func pending(progress float64) *domain.AnalysisResult {
	return &domain.AnalysisResult{Status: domain.AnalysisPending, Progress: progress}
}

func complete(files ...string) *domain.AnalysisResult {
	result := &domain.AnalysisResult{Status: domain.AnalysisComplete, Progress: 1}
	for _, f := range files {
		result.FileAnalyses = append(result.FileAnalyses, domain.FileAnalysis{
			FileName:    f,
			Suggestions: []domain.Suggestion{{ID: "rule/" + f, Severity: domain.SeverityHigh}},
		})
	}
	return result
}

// fastPoll returns poll settings that never wait noticeably.
func fastPoll() domain.PollSettings {
	return domain.PollSettings{
		MaxAttempts:     10,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Timeout:         time.Minute,
	}
}
