package gateway

import (
	"context"
	"fmt"
	"net/http"

	"slidegenie/internal/domain/models"
)

// OAuthProvider names a social login backend route.
type OAuthProvider string

const (
	OAuthGoogle    OAuthProvider = "google"
	OAuthMicrosoft OAuthProvider = "microsoft"
)

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

func (c *Client) Register(ctx context.Context, creds models.RegisterCredentials) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", creds)
}

// ExchangeOAuthCode trades an authorization code from provider for a session.
func (c *Client) ExchangeOAuthCode(ctx context.Context, provider OAuthProvider, code string) (*models.AuthResponse, error) {
	switch provider {
	case OAuthGoogle, OAuthMicrosoft:
	default:
		return nil, fmt.Errorf("unknown oauth provider %q", provider)
	}
	return c.authenticate(ctx, "/auth/"+string(provider), map[string]string{"code": code})
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*models.AuthResponse, error) {
	r, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	r.anonymous = true
	body, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := decode(body, &resp, "data"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the session on the backend. Local teardown is the session's job.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &u, "data", "user"); err != nil {
		return nil, err
	}
	return &u, nil
}

// VerifyToken checks token itself rather than the session's token. A 401
// is returned as is, without a refresh.
func (c *Client) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	status, body, err := c.roundTrip(ctx, request{method: http.MethodGet, path: "/auth/verify"}, token)
	if err != nil {
		return nil, err
	}
	if body, err = checkStatus(status, body); err != nil {
		return nil, err
	}
	var u models.User
	if err := decode(body, &u, "data", "user"); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/auth/forgot-password", map[string]string{"email": email})
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	return c.message(ctx, "/auth/reset-password", map[string]string{"token": token, "password": password})
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	return c.message(ctx, "/auth/verify-email", map[string]string{"token": token})
}

func (c *Client) message(ctx context.Context, path string, payload any) (string, error) {
	r, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}
	r.anonymous = true
	body, err := c.send(ctx, r)
	if err != nil {
		return "", err
	}
	var m MessageResponse
	if err := decode(body, &m, "data"); err != nil {
		return "", err
	}
	return m.Message, nil
}
