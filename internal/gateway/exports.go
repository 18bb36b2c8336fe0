package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"slidegenie/internal/domain/models"
)

// ErrExportFailed is returned by WaitForExport when the backend gives up.
var ErrExportFailed = errors.New("export failed")

// ExportResult acknowledges an export request. URL is set when the file is
// ready immediately; otherwise ID identifies the record to poll.
type ExportResult struct {
	ID      string              `json:"id,omitempty"`
	URL     string              `json:"url,omitempty"`
	Message string              `json:"message,omitempty"`
	Status  models.ExportStatus `json:"status,omitempty"`
}

func (c *Client) Export(ctx context.Context, presentationID string, opts models.ExportOptions) (*ExportResult, error) {
	var res ExportResult
	if err := c.call(ctx, http.MethodPost, presentationPath(presentationID)+"/export", opts, &res, "data"); err != nil {
		return nil, err
	}
	return &res, nil
}

// Exports returns the export history, newest first as the backend sends it.
func (c *Client) Exports(ctx context.Context, presentationID string) ([]models.ExportRecord, error) {
	var records []models.ExportRecord
	if err := c.call(ctx, http.MethodGet, presentationPath(presentationID)+"/exports", nil, &records, "data", "exports"); err != nil {
		return nil, err
	}
	return records, nil
}

// WaitForExport polls the export history until record exportID is complete
// or failed. Polls are spaced by the client's poll interval.
func (c *Client) WaitForExport(ctx context.Context, presentationID, exportID string) (*models.ExportRecord, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		records, err := c.Exports(ctx, presentationID)
		if err != nil {
			return nil, err
		}
		for i := range records {
			rec := records[i]
			if rec.ID != exportID || !rec.Status.Done() {
				continue
			}
			if rec.Status == models.ExportFailed {
				return &rec, fmt.Errorf("export %s: %w", exportID, ErrExportFailed)
			}
			return &rec, nil
		}
		c.logger.Debug("export pending", "export_id", exportID)
	}
}

// Download streams the file at fileURL into w. Relative URLs resolve
// against the API root.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(fileURL), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if tok := c.tokens.Tokens().Access; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return 0, responseError(resp.StatusCode, body)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download: %w", err)
	}
	return n, nil
}
