package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// ErrStateMismatch is returned when a callback's state does not match the
// one issued with the authorization URL.
var ErrStateMismatch = errors.New("oauth state mismatch")

// AuthRequest is one pending authorization. Keep State and Verifier until
// the callback arrives.
type AuthRequest struct {
	URL      string
	State    string
	Verifier string
}

// OAuthProvider builds authorization URLs for a social login. The code it
// yields is exchanged by the backend, not here.
type OAuthProvider struct {
	Name string
	cfg  oauth2.Config
}

// NewGoogle returns the Google provider.
func NewGoogle(clientID, redirectURL string) *OAuthProvider {
	return &OAuthProvider{Name: "google", cfg: oauth2.Config{
		ClientID:    clientID,
		Endpoint:    endpoints.Google,
		RedirectURL: redirectURL,
		Scopes:      []string{"openid", "email", "profile"},
	}}
}

// NewMicrosoft returns the Microsoft provider for any tenant.
func NewMicrosoft(clientID, redirectURL string) *OAuthProvider {
	return &OAuthProvider{Name: "microsoft", cfg: oauth2.Config{
		ClientID:    clientID,
		Endpoint:    endpoints.AzureAD("common"),
		RedirectURL: redirectURL,
		Scopes:      []string{"openid", "email", "profile", "offline_access"},
	}}
}

// AuthURL starts an authorization with a random state and a PKCE verifier.
func (p *OAuthProvider) AuthURL() (AuthRequest, error) {
	if p.cfg.ClientID == "" {
		return AuthRequest{}, fmt.Errorf("%s oauth client id is not configured", p.Name)
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	u := p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return AuthRequest{URL: u, State: state, Verifier: verifier}, nil
}

// CodeFromCallback extracts the authorization code from the redirect URL
// after checking its state.
func CodeFromCallback(callbackURL, wantState string) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", fmt.Errorf("parse callback: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		if d := q.Get("error_description"); d != "" {
			return "", fmt.Errorf("authorization denied: %s: %s", e, d)
		}
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if q.Get("state") != wantState {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("callback has no code")
	}
	return code, nil
}
