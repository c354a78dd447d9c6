// Package app assembles the adapters and services that scan one workspace.
//
// A Session owns the in-memory cache, filters and scan orchestrator for a
// single directory. One-shot scans restore the cache from the snapshot store
// and diff the workspace against it; watch mode keeps the cache in memory and
// rescans incrementally as fsnotify reports changes.
package app
