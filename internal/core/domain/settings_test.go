package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, DefaultEndpoint, s.API.Endpoint)
	assert.Equal(t, DefaultWorkers, s.Scan.Workers)
	assert.Equal(t, DefaultBatchSize, s.Upload.BatchSize)
	assert.Equal(t, int64(DefaultMaxBatchBytes), s.Upload.MaxBatchBytes)
	assert.Equal(t, DefaultMaxAttempts, s.Poll.MaxAttempts)
	assert.Equal(t, DefaultInitialInterval, s.Poll.InitialInterval)
	assert.Contains(t, s.Filter.Extensions, ".go")
	assert.Contains(t, s.Filter.ConfigFiles, ".dcignore")
}

func TestDefaultSettings_SlicesAreCopies(t *testing.T) {
	s := DefaultSettings()
	s.Filter.Extensions[0] = ".changed"

	assert.NotEqual(t, ".changed", DefaultExtensions[0])
}

func TestProgressFunc_Report(t *testing.T) {
	var nilFunc ProgressFunc
	assert.NotPanics(t, func() { nilFunc.Report(StageUploading, 10) })

	var gotStage ScanStage
	var gotPercent int
	f := ProgressFunc(func(stage ScanStage, percent int) {
		gotStage, gotPercent = stage, percent
	})
	f.Report(StageAnalysing, 42)

	assert.Equal(t, StageAnalysing, gotStage)
	assert.Equal(t, 42, gotPercent)
}
