// Package session owns the signed-in user and tokens for one process and
// persists them when the user asked to be remembered.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"slidegenie/internal/auth"
	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/gateway"
)

// Session is safe for concurrent use and implements gateway.TokenSource.
type Session struct {
	store     Store
	inspector auth.TokenInspector
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	user     *models.User
	tokens   gateway.Tokens
	remember bool
}

// New returns an empty session backed by store.
func New(store Store, inspector auth.TokenInspector, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, inspector: inspector, logger: logger, now: time.Now}
}

// Hydrate restores a remembered session. An expired access token is kept
// when a refresh token exists, since the gateway refreshes on the first 401.
// Unusable credentials are removed. It reports whether a session is active.
func (s *Session) Hydrate() (bool, error) {
	creds, err := s.store.Load()
	if err != nil {
		s.logger.Warn("discarding unreadable credentials", "error", err)
		return false, s.store.Clear()
	}
	if creds == nil || creds.Token == "" {
		return false, nil
	}

	claims, err := s.inspector.Inspect(creds.Token)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpired) && creds.RefreshToken != "":
		s.logger.Debug("access token expired, will refresh on first call")
	default:
		s.logger.Info("stored session is no longer valid", "error", err)
		return false, s.store.Clear()
	}
	if claims != nil && creds.User.ID != "" && claims.GetUserID() != creds.User.ID {
		s.logger.Warn("stored token belongs to another user", "user_id", creds.User.ID)
		return false, s.store.Clear()
	}

	s.mu.Lock()
	user := creds.User
	s.user = &user
	s.tokens = gateway.Tokens{Access: creds.Token, Refresh: creds.RefreshToken}
	s.remember = true
	s.mu.Unlock()
	return true, nil
}

// Login installs resp as the active session. Only a remembered session is
// written to disk.
func (s *Session) Login(resp *models.AuthResponse, remember bool) error {
	s.mu.Lock()
	user := resp.User
	s.user = &user
	s.tokens = gateway.Tokens{Access: resp.Token, Refresh: resp.RefreshToken}
	s.remember = remember
	s.mu.Unlock()

	if !remember {
		return s.store.Clear()
	}
	return s.persist()
}

// Logout forgets the session in memory and on disk. It is idempotent.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.tokens = gateway.Tokens{}
	s.remember = false
	s.mu.Unlock()
	return s.store.Clear()
}

// User returns the signed-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// SetUser replaces the cached profile, e.g. after /auth/me.
func (s *Session) SetUser(u models.User) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	s.user = &u
	s.mu.Unlock()
	return s.persist()
}

// IsAuthenticated reports whether an access token is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Access != ""
}

func (s *Session) Tokens() gateway.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// UpdateTokens stores refreshed tokens, persisting them if remembered.
func (s *Session) UpdateTokens(t gateway.Tokens) error {
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return s.persist()
}

// ClearTokens ends the session after an unrecoverable 401.
func (s *Session) ClearTokens() error { return s.Logout() }

func (s *Session) persist() error {
	s.mu.Lock()
	if !s.remember || s.user == nil {
		s.mu.Unlock()
		return nil
	}
	creds := &Credentials{
		User:         *s.user,
		Token:        s.tokens.Access,
		RefreshToken: s.tokens.Refresh,
		SavedAt:      s.now(),
	}
	s.mu.Unlock()
	return s.store.Save(creds)
}
