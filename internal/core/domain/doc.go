// Package domain defines the core entities of the code analysis orchestrator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Bundle: The remote analysis unit and the files it is missing
//   - FileHash: What the remote bundle knows about one file
//   - AnalysisResult: Findings returned by the remote analysis service
//   - CacheEntry: The last successful analysis for a workspace
//   - Settings: Validated runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
