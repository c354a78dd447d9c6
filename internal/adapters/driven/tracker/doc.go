// Package tracker provides file trackers that record workspace changes
// between scans.
//
// Watcher follows the workspace with fsnotify and suits long running
// sessions. Snapshot diffs the workspace against the files of the last
// cached scan and suits one-shot runs.
package tracker
