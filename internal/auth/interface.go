package auth

import (
	"errors"

	"slidegenie/internal/domain/models"
)

// ErrExpired marks a well-formed token whose exp claim has passed. The
// claims are still returned alongside it.
var ErrExpired = errors.New("token expired")

// TokenInspector reads the claims of an access token.
type TokenInspector interface {
	// Inspect returns the claims of token. An expired but otherwise valid
	// token yields its claims and an error matching ErrExpired; any other
	// problem yields domain.ErrUnauthorized.
	Inspect(token string) (*models.AccessClaims, error)

	// Close releases resources held by the inspector.
	Close() error
}
