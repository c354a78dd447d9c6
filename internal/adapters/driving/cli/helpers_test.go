package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
)

// fakeSession implements driving.WorkspaceSession.
type fakeSession struct {
	root          string
	result        *domain.AnalysisResult
	scanErr       error
	entry         *domain.CacheEntry
	cachedErr     error
	filtersLoaded bool
	cleared       bool
	watchResults  []*domain.AnalysisResult
	exclusions    []domain.Exclusion
	excludeErr    error
}

var _ driving.WorkspaceSession = (*fakeSession)(nil)

func (s *fakeSession) Root() string { return s.root }

func (s *fakeSession) LoadFilters(_ context.Context) { s.filtersLoaded = true }

func (s *fakeSession) Scan(_ context.Context, onProgress domain.ProgressFunc) (*domain.AnalysisResult, error) {
	onProgress.Report(domain.StagePreparing, 0)
	onProgress.Report(domain.StageDone, 100)
	return s.result, s.scanErr
}

func (s *fakeSession) Watch(
	_ context.Context,
	_ time.Duration,
	_ domain.ProgressFunc,
	onScan func(*domain.AnalysisResult, error),
) error {
	for _, result := range s.watchResults {
		onScan(result, nil)
	}
	if s.scanErr != nil {
		onScan(nil, s.scanErr)
	}
	return nil
}

func (s *fakeSession) Cached(_ context.Context) (*domain.CacheEntry, error) {
	if s.cachedErr != nil {
		return nil, s.cachedErr
	}
	if s.entry == nil {
		return nil, domain.ErrNotFound
	}
	return s.entry, nil
}

func (s *fakeSession) ClearCache(_ context.Context) error {
	s.cleared = true
	return nil
}

func (s *fakeSession) Exclude(_ context.Context, path, reason string) (domain.Exclusion, error) {
	if s.excludeErr != nil {
		return domain.Exclusion{}, s.excludeErr
	}
	exclusion := domain.Exclusion{ID: fmt.Sprintf("e%d", len(s.exclusions)+1), Workspace: s.root, Path: "/" + path, Reason: reason}
	s.exclusions = append(s.exclusions, exclusion)
	return exclusion, nil
}

func (s *fakeSession) Include(_ context.Context, id string) error {
	for i, e := range s.exclusions {
		if e.ID == id {
			s.exclusions = append(s.exclusions[:i], s.exclusions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *fakeSession) Exclusions(_ context.Context) ([]domain.Exclusion, error) {
	return s.exclusions, nil
}

// fakeSettings implements driving.SettingsService.
type fakeSettings struct {
	settings domain.Settings
	set      map[string]string
	setErr   error
}

var _ driving.SettingsService = (*fakeSettings)(nil)

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultSettings(), set: make(map[string]string)}
}

func (s *fakeSettings) Get() (*domain.Settings, error) {
	settings := s.settings
	return &settings, nil
}

func (s *fakeSettings) Set(key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.set[key] = value
	return nil
}

func (s *fakeSettings) Keys() []string {
	return []string{"api.endpoint", "api.token"}
}

// setupTestServices installs fakes and returns the opened roots and a cleanup.
func setupTestServices(session *fakeSession, settings *fakeSettings) (*[]string, func()) {
	var opened []string
	SetServices(&Services{
		Settings: settings,
		Open: func(root string) (driving.WorkspaceSession, error) {
			opened = append(opened, root)
			return session, nil
		},
	})
	return &opened, func() {
		SetServices(nil)
		scanJSON = false
		scanFailOn = ""
		scanSkipFilters = false
		excludeWorkspace = "."
		excludeReason = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// execute runs the root command with args and returns its standard output.
// Progress and errors go to a separate buffer.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Status:   domain.AnalysisComplete,
		Progress: 1,
		FileAnalyses: []domain.FileAnalysis{
			{
				FileName: "/main.go",
				Suggestions: []domain.Suggestion{
					{ID: "go/sqli", RuleID: "Sqli", Message: "SQL injection", Severity: domain.SeverityHigh, Rows: [2]int{12, 12}, Columns: [2]int{5, 20}},
					{ID: "go/todo", RuleID: "Todo", Message: "Leftover TODO", Severity: domain.SeverityLow, Rows: [2]int{3, 3}, Columns: [2]int{1, 8}},
				},
			},
			{FileName: "/clean.go"},
		},
	}
}
