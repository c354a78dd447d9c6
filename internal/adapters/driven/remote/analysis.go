package remote

import (
	"context"
	"net/http"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// GetAnalysis performs a single analysis status query.
func (c *Client) GetAnalysis(ctx context.Context, bundleID string) (*domain.AnalysisResult, error) {
	const op = "get analysis"
	if bundleID == "" {
		return nil, invalidResponse(op, "empty bundle id")
	}
	req := analysisRequest{Key: analysisKey{Type: "file", Hash: bundleID}}
	var resp analysisResponse
	if err := c.do(ctx, op, http.MethodPost, "/analysis", req, &resp); err != nil {
		return nil, err
	}

	status, err := domain.ParseAnalysisStatus(resp.Status)
	if err != nil {
		return nil, &domain.ProtocolError{Op: op, Code: domain.CodeInvalidResponse, Err: err}
	}
	return resp.toDomain(status), nil
}
