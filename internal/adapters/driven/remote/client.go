package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// Ensure Client implements the interfaces.
var (
	_ driven.BundleService   = (*Client)(nil)
	_ driven.AnalysisService = (*Client)(nil)
	_ driven.FiltersService  = (*Client)(nil)
)

// Request headers.
const (
	headerSessionToken = "Session-Token"
	headerRequestID    = "X-Request-ID"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// Config holds configuration for the client.
type Config struct {
	// Endpoint is the service base URL (default: domain.DefaultEndpoint).
	Endpoint string

	// Token is the session token sent with every request.
	Token string

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout is the per request timeout (default: domain.DefaultRequestTimeout).
	Timeout time.Duration

	// HTTPClient overrides the HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the code analysis service.
type Client struct {
	http     *http.Client
	endpoint string
	token    string
	limiter  *rateLimiter
}

// NewClient creates a new client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = domain.DefaultEndpoint
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, fmt.Errorf("remote: endpoint %q: %w", cfg.Endpoint, domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		limiter:  newRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// do performs one request. in is JSON encoded when non-nil; the response is
// decoded into out when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(headerSessionToken, c.token)
	}
	req.Header.Set(headerRequestID, requestID)

	logger.Debug("%s %s (request %s)", method, path, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.ProtocolError{Op: op, Code: domain.CodeNetwork, Err: err}
	}
	defer resp.Body.Close()

	if c.limiter.Observe(resp) {
		return &domain.ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Code:       domain.CodeRateLimit,
			Message:    readErrorMessage(resp.Body),
			Err:        domain.ErrRateLimited,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Code:       codeForStatus(resp.StatusCode),
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Code:       domain.CodeInvalidResponse,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// invalidResponse reports a well formed response with unusable content.
func invalidResponse(op, msg string) error {
	return &domain.ProtocolError{
		Op:   op,
		Code: domain.CodeInvalidResponse,
		Err:  errors.New(msg),
	}
}

func codeForStatus(status int) domain.ErrorCode {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.CodeUnauthorized
	case status == http.StatusNotFound:
		return domain.CodeNotFound
	case status == http.StatusTooManyRequests:
		return domain.CodeRateLimit
	case status >= 500:
		return domain.CodeServer
	default:
		return domain.CodeUnknown
	}
}

// errorBody is the error payload returned by the service.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// readErrorMessage extracts the human readable message from an error
// response. JSON payloads yield their message field; plain text bodies are
// returned trimmed.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return ErrorMessage(raw)
}

// ErrorMessage returns the message carried by an error payload.
func ErrorMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "{") {
		var body errorBody
		if err := json.Unmarshal([]byte(text), &body); err == nil {
			switch {
			case body.Message != "":
				return body.Message
			case body.Error != "":
				return body.Error
			}
		}
		return ""
	}
	return text
}
