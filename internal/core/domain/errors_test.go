package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrScanInProgress", ErrScanInProgress},
		{"ErrInvalidCacheEntry", ErrInvalidCacheEntry},
		{"ErrRemoteProtocol", ErrRemoteProtocol},
		{"ErrAnalysisTimeout", ErrAnalysisTimeout},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrContentChanged", ErrContentChanged},
		{"ErrWatcherClosed", ErrWatcherClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrAnalysisTimeout, ErrRemoteProtocol))
	assert.False(t, errors.Is(ErrRemoteProtocol, ErrAnalysisTimeout))
	assert.False(t, errors.Is(ErrScanInProgress, ErrNotFound))
}

func TestProtocolError(t *testing.T) {
	t.Run("matches ErrRemoteProtocol", func(t *testing.T) {
		err := fmt.Errorf("create bundle: %w", &ProtocolError{Op: "create bundle", Code: CodeServer, StatusCode: 500})

		assert.True(t, errors.Is(err, ErrRemoteProtocol))
		assert.False(t, errors.Is(err, ErrAnalysisTimeout))
	})

	t.Run("unwraps cause", func(t *testing.T) {
		err := &ProtocolError{Op: "upload", Code: CodeRateLimit, Err: ErrRateLimited}

		assert.True(t, errors.Is(err, ErrRateLimited))
		assert.True(t, errors.Is(err, ErrRemoteProtocol))
	})

	t.Run("error string with status", func(t *testing.T) {
		err := &ProtocolError{Op: "check bundle", Code: CodeNotFound, StatusCode: 404, Message: "bundle not found"}

		assert.Equal(t, "check bundle: NOT_FOUND (status 404): bundle not found", err.Error())
	})

	t.Run("error string without status falls back to cause", func(t *testing.T) {
		err := &ProtocolError{Op: "get analysis", Code: CodeNetwork, Err: errors.New("connection refused")}

		assert.Equal(t, "get analysis: NETWORK_ERROR: connection refused", err.Error())
	})
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"protocol message", &ProtocolError{Op: "x", Code: CodeUnauthorized, Message: "Not authorised"}, "Not authorised"},
		{"timeout", fmt.Errorf("await: %w", ErrAnalysisTimeout), "Analysis did not complete in time, try again later"},
		{"in progress", ErrScanInProgress, "A scan is already running"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
