package gateway

import (
	"context"
	"net/http"
	"net/url"

	"slidegenie/internal/domain/models"
)

func (c *Client) Templates(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	if err := c.call(ctx, http.MethodGet, "/templates", nil, &out, "data", "templates"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Template(ctx context.Context, id string) (*models.Template, error) {
	var out models.Template
	if err := c.call(ctx, http.MethodGet, "/templates/"+url.PathEscape(id), nil, &out, "data", "template"); err != nil {
		return nil, err
	}
	return &out, nil
}
