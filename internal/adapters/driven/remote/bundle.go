package remote

import (
	"context"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// CreateBundle creates a bundle from a path to hash map.
func (c *Client) CreateBundle(ctx context.Context, files map[string]string) (*domain.Bundle, error) {
	const op = "create bundle"
	if files == nil {
		files = map[string]string{}
	}
	var resp bundleResponse
	if err := c.do(ctx, op, http.MethodPost, "/bundle", files, &resp); err != nil {
		return nil, err
	}
	return c.bundle(op, resp)
}

// ExtendBundle derives a new bundle from bundleID.
func (c *Client) ExtendBundle(
	ctx context.Context,
	bundleID string,
	files map[string]string,
	removed []string,
) (*domain.Bundle, error) {
	const op = "extend bundle"
	if bundleID == "" {
		return nil, invalidResponse(op, "empty bundle id")
	}
	req := extendBundleRequest{Files: files, RemovedFiles: removed}
	if req.Files == nil {
		req.Files = map[string]string{}
	}
	if req.RemovedFiles == nil {
		req.RemovedFiles = []string{}
	}
	var resp bundleResponse
	if err := c.do(ctx, op, http.MethodPut, "/bundle/"+url.PathEscape(bundleID), req, &resp); err != nil {
		return nil, err
	}
	return c.bundle(op, resp)
}

// CheckBundle returns the bundle with its current missing files.
func (c *Client) CheckBundle(ctx context.Context, bundleID string) (*domain.Bundle, error) {
	const op = "check bundle"
	if bundleID == "" {
		return nil, invalidResponse(op, "empty bundle id")
	}
	var resp bundleResponse
	if err := c.do(ctx, op, http.MethodGet, "/bundle/"+url.PathEscape(bundleID), nil, &resp); err != nil {
		return nil, err
	}
	return c.bundle(op, resp)
}

// UploadFiles uploads file content to a bundle. Content that is not valid
// UTF-8 is skipped: the JSON body would replace the bad bytes and the server
// would then store content that no longer matches its hash.
func (c *Client) UploadFiles(ctx context.Context, bundleID string, files []domain.FileContent) error {
	const op = "upload files"
	if bundleID == "" {
		return invalidResponse(op, "empty bundle id")
	}
	if len(files) == 0 {
		return nil
	}
	req := make([]uploadFile, 0, len(files))
	for _, f := range files {
		if !utf8.Valid(f.Content) {
			logger.Warn("Skipping upload of %s: content is not valid UTF-8", f.Hash)
			continue
		}
		req = append(req, uploadFile{FileHash: f.Hash, FileContent: string(f.Content)})
	}
	if len(req) == 0 {
		return nil
	}
	return c.do(ctx, op, http.MethodPost, "/file/"+url.PathEscape(bundleID), req, nil)
}

func (c *Client) bundle(op string, resp bundleResponse) (*domain.Bundle, error) {
	if resp.BundleHash == "" {
		return nil, invalidResponse(op, "response has no bundle hash")
	}
	return resp.toDomain(), nil
}
