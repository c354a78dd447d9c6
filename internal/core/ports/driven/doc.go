// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FileTracker: Enumerates workspace files and records changes between scans
//   - FileFilter: Narrows files to those the remote service can analyse
//   - IgnoreFilter: Drops files excluded by the user
//   - ContentHasher: Computes content digests and reads file content
//   - BundleService: Creates, extends and checks remote bundles, uploads content
//   - AnalysisService: Queries remote analysis status
//   - CodeCache: Holds the last successful analysis per workspace
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - FiltersService: Supported file types reported by the remote service.
//     Without it, the configured extensions are used.
//   - CacheSnapshotStore: Persists cache entries across process restarts.
//     Without it, the cache lives only as long as the process.
//   - ExclusionStore: Persists user exclusions per workspace.
//     Without it, exclusions come from configuration only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
