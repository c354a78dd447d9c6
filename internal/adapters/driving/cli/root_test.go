package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"scan", "watch", "cache", "exclude", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestLoadServices_Bootstrap(t *testing.T) {
	defer func() {
		SetBootstrap(nil)
		SetServices(nil)
		configPath = ""
	}()

	SetServices(nil)
	SetBootstrap(nil)
	_, err := loadServices()
	assert.EqualError(t, err, "services not configured")

	calls := 0
	var gotPath string
	SetBootstrap(func(path string) (*Services, error) {
		calls++
		gotPath = path
		return &Services{Settings: newFakeSettings()}, nil
	})
	configPath = "/etc/sercha-code.toml"

	first, err := loadServices()
	require.NoError(t, err)
	second, err := loadServices()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/etc/sercha-code.toml", gotPath)

	_, err = openSession(nil)
	assert.EqualError(t, err, "scan service not configured")
}

func TestLoadServices_BootstrapError(t *testing.T) {
	defer func() {
		SetBootstrap(nil)
		SetServices(nil)
	}()
	SetServices(nil)
	SetBootstrap(func(string) (*Services, error) {
		return nil, errors.New("bad config")
	})

	_, err := loadServices()
	assert.EqualError(t, err, "bad config")
}

func TestExecute_ClosesServices(t *testing.T) {
	closed := false
	SetServices(&Services{
		Open:  func(string) (driving.WorkspaceSession, error) { return &fakeSession{root: "/ws"}, nil },
		Close: func() error { closed = true; return nil },
	})
	defer SetServices(nil)

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute())
	assert.True(t, closed)
}

func TestProgressPrinter_NonTerminal(t *testing.T) {
	buf := new(bytes.Buffer)
	p := newProgressPrinter(buf)

	p.Report(domain.StagePreparing, 0)
	p.Report(domain.StagePreparing, 100)
	p.Report(domain.StageUploading, 50)
	p.Report(domain.StageAnalysing, 10)
	p.Report(domain.StageAnalysing, 90)
	p.Report(domain.StageDone, 100)
	p.Done()

	assert.Equal(t, "Preparing files...\nUploading...\nAnalysing...\n", buf.String())
}
