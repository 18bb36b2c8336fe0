package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"slidegenie/internal/domain/models"
)

// ListParams filters the presentation list. Zero fields are omitted.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	return v
}

func (c *Client) ListPresentations(ctx context.Context, params ListParams) (*models.PresentationList, error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: "/presentations", query: params.values()})
	if err != nil {
		return nil, err
	}
	inner := unwrap(body, "data")

	var list models.PresentationList
	if bytes.HasPrefix(bytes.TrimSpace(inner), []byte("[")) {
		if err := json.Unmarshal(inner, &list.Presentations); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		list.Total = len(list.Presentations)
	} else if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if list.Page == 0 {
		list.Page = max(params.Page, 1)
	}
	if list.Limit == 0 {
		list.Limit = params.Limit
	}
	if list.TotalPages == 0 && list.Limit > 0 {
		list.TotalPages = (list.Total + list.Limit - 1) / list.Limit
	}
	return &list, nil
}

func (c *Client) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.call(ctx, http.MethodGet, presentationPath(id), nil, &p, "data", "presentation"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePresentation(ctx context.Context, req models.CreatePresentationRequest) (*models.Presentation, error) {
	var p models.Presentation
	if err := c.call(ctx, http.MethodPost, "/presentations", req, &p, "data", "presentation"); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePresentation replaces the stored presentation with p. It satisfies
// editor.Saver.
func (c *Client) UpdatePresentation(ctx context.Context, p *models.Presentation) (*models.Presentation, error) {
	var out models.Presentation
	if err := c.call(ctx, http.MethodPut, presentationPath(p.ID), p, &out, "data", "presentation"); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return p, nil
	}
	return &out, nil
}

func (c *Client) DeletePresentation(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, presentationPath(id), nil, nil)
}

// GenerateRequest starts an AI generation from pasted content or a file.
type GenerateRequest struct {
	Content  string
	FilePath string
	Config   models.PresentationConfig
}

// Generate uploads the source material as multipart form data.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*models.GenerationJob, error) {
	body, contentType, err := generateBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/presentations/generate",
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	var job models.GenerationJob
	if err := decode(resp, &job, "data"); err != nil {
		return nil, err
	}
	return &job, nil
}

func generateBody(req GenerateRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if req.Content != "" {
		if err := w.WriteField("content", req.Content); err != nil {
			return nil, "", err
		}
	}
	if req.FilePath != "" {
		if err := writeFilePart(w, req.FilePath); err != nil {
			return nil, "", err
		}
	}
	cfg, err := json.Marshal(req.Config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := w.WriteField("config", string(cfg)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("detect upload type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mt.String())
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	return nil
}

func (c *Client) GenerationStatus(ctx context.Context, generationID string) (*models.GenerationProgress, error) {
	var p models.GenerationProgress
	if err := c.call(ctx, http.MethodGet, generationPath(generationID)+"/status", nil, &p, "data"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CancelGeneration(ctx context.Context, generationID string) error {
	return c.call(ctx, http.MethodPost, generationPath(generationID)+"/cancel", nil, nil)
}

func (c *Client) RetryGeneration(ctx context.Context, generationID string) error {
	return c.call(ctx, http.MethodPost, generationPath(generationID)+"/retry", nil, nil)
}

func presentationPath(id string) string { return "/presentations/" + url.PathEscape(id) }

func generationPath(id string) string { return "/presentations/generation/" + url.PathEscape(id) }
