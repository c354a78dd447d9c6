package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrScanInProgress indicates a scan is already running for the workspace.
	ErrScanInProgress = errors.New("scan in progress")

	// ErrInvalidCacheEntry indicates a cache entry violates the cache invariants,
	// e.g. a valid entry without a complete analysis.
	ErrInvalidCacheEntry = errors.New("invalid cache entry")

	// Remote Errors.

	// ErrRemoteProtocol indicates the remote service returned a malformed or
	// unexpected response. The scan is aborted and the cache left untouched.
	ErrRemoteProtocol = errors.New("remote protocol error")

	// ErrAnalysisTimeout indicates the analysis did not complete within the
	// configured number of poll attempts or time budget.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrContentChanged indicates a file changed between hashing and upload.
	ErrContentChanged = errors.New("content changed since hashing")

	// Tracker Errors.

	// ErrWatcherClosed indicates the file watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")
)

// ErrorCode classifies remote failures.
// Codes are strings so they read well in logs and JSON.
type ErrorCode string

// Remote error codes.
const (
	CodeNetwork         ErrorCode = "NETWORK_ERROR"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	CodeServer          ErrorCode = "SERVER_ERROR"
	CodeUnknown         ErrorCode = "UNKNOWN"
)

// ProtocolError describes a failed exchange with the remote service.
// It matches ErrRemoteProtocol with errors.Is.
type ProtocolError struct {
	// Op is the remote operation, e.g. "create bundle".
	Op string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Code classifies the failure.
	Code ErrorCode

	// Message is the human readable message reported by the service, if any.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Code, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRemoteProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrRemoteProtocol
}

// UserMessage returns the message best suited for display to a user.
// Raw JSON error payloads are never returned.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	switch {
	case errors.Is(err, ErrAnalysisTimeout):
		return "Analysis did not complete in time, try again later"
	case errors.Is(err, ErrScanInProgress):
		return "A scan is already running"
	case errors.Is(err, ErrRateLimited):
		return "Too many requests, try again later"
	}
	return err.Error()
}
