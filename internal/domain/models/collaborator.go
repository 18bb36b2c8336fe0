package models

// CollaboratorRole is a sharing permission level.
type CollaboratorRole string

const (
	RoleViewer CollaboratorRole = "viewer"
	RoleEditor CollaboratorRole = "editor"
	RoleOwner  CollaboratorRole = "owner"
)

// Collaborator is a user with access to a presentation.
type Collaborator struct {
	ID       string           `json:"id"`
	UserID   string           `json:"userId"`
	User     User             `json:"user"`
	Role     CollaboratorRole `json:"role"`
	IsActive bool             `json:"isActive,omitempty"`
}

// AddCollaboratorRequest is the body of POST /presentations/{id}/collaborators.
type AddCollaboratorRequest struct {
	Email string           `json:"email"`
	Role  CollaboratorRole `json:"role"`
}
