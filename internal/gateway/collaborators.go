package gateway

import (
	"context"
	"net/http"
	"net/url"

	"slidegenie/internal/domain/models"
)

func (c *Client) Collaborators(ctx context.Context, presentationID string) ([]models.Collaborator, error) {
	var out []models.Collaborator
	if err := c.call(ctx, http.MethodGet, collaboratorsPath(presentationID), nil, &out, "data", "collaborators"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCollaborator(ctx context.Context, presentationID string, req models.AddCollaboratorRequest) (*models.Collaborator, error) {
	var out models.Collaborator
	if err := c.call(ctx, http.MethodPost, collaboratorsPath(presentationID), req, &out, "data", "collaborator"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCollaborator(ctx context.Context, presentationID, collaboratorID string, role models.CollaboratorRole) (*models.Collaborator, error) {
	var out models.Collaborator
	path := collaboratorsPath(presentationID) + "/" + url.PathEscape(collaboratorID)
	if err := c.call(ctx, http.MethodPatch, path, map[string]models.CollaboratorRole{"role": role}, &out, "data", "collaborator"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCollaborator(ctx context.Context, presentationID, collaboratorID string) error {
	path := collaboratorsPath(presentationID) + "/" + url.PathEscape(collaboratorID)
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

func collaboratorsPath(id string) string { return presentationPath(id) + "/collaborators" }
