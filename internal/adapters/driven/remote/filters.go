package remote

import (
	"context"
	"net/http"

	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
)

// GetFilters returns the files the service can analyse.
func (c *Client) GetFilters(ctx context.Context) (*driven.SupportedFiles, error) {
	const op = "get filters"
	var resp filtersResponse
	if err := c.do(ctx, op, http.MethodGet, "/filters", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Extensions) == 0 && len(resp.ConfigFiles) == 0 {
		return nil, invalidResponse(op, "empty filters")
	}
	return &driven.SupportedFiles{
		Extensions:  resp.Extensions,
		ConfigFiles: resp.ConfigFiles,
	}, nil
}
