package driven

import (
	"context"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// ContentHasher computes stable content fingerprints for workspace files.
type ContentHasher interface {
	// Hash computes digests for the given local paths, keyed by bundle path.
	// Unreadable files are skipped; only cancellation is returned as an error.
	Hash(ctx context.Context, paths []string) (domain.FileHashes, error)

	// Read returns the current content of a hashed file.
	Read(ctx context.Context, file domain.FileHash) ([]byte, error)
}
