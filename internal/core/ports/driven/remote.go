package driven

import (
	"context"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// BundleService manages remote bundles.
// Implementations return *domain.ProtocolError for malformed or failed exchanges.
type BundleService interface {
	// CreateBundle creates a bundle from a path to hash map.
	CreateBundle(ctx context.Context, files map[string]string) (*domain.Bundle, error)

	// ExtendBundle derives a new bundle from an existing one, adding or
	// replacing files and dropping removed paths.
	ExtendBundle(ctx context.Context, bundleID string, files map[string]string, removed []string) (*domain.Bundle, error)

	// CheckBundle returns the bundle with its current missing files.
	CheckBundle(ctx context.Context, bundleID string) (*domain.Bundle, error)

	// UploadFiles uploads file content to a bundle.
	UploadFiles(ctx context.Context, bundleID string, files []domain.FileContent) error
}

// AnalysisService queries remote analysis state.
type AnalysisService interface {
	// GetAnalysis performs a single status query for a bundle.
	GetAnalysis(ctx context.Context, bundleID string) (*domain.AnalysisResult, error)
}

// SupportedFiles describes the files the remote service can analyse.
type SupportedFiles struct {
	Extensions  []string
	ConfigFiles []string
}

// FiltersService reports the files the remote service supports.
type FiltersService interface {
	GetFilters(ctx context.Context) (*SupportedFiles, error)
}
