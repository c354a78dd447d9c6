// Package workspace provides access to the files of a local workspace:
// enumeration, content hashing, content reads and supported-file filtering.
//
// All access goes through a go-billy filesystem rooted at the workspace, so
// tests can run against an in-memory filesystem.
package workspace
