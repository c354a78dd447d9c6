package domain

import "time"

// Exclusion represents a workspace file excluded from analysis.
type Exclusion struct {
	// ID is the unique identifier for the exclusion.
	ID string

	// Workspace is the workspace root the exclusion applies to.
	Workspace string

	// Path is the excluded file as a bundle path.
	Path string

	// Reason is an optional explanation for the exclusion.
	Reason string

	// ExcludedAt is when the file was excluded.
	ExcludedAt time.Time
}
