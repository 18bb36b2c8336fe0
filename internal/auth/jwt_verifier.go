package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

var allowedAlgs = []string{"RS256", "ES256"}

// JWKSInspector verifies token signatures against a JWKS endpoint.
type JWKSInspector struct {
	jwks   keyfunc.Keyfunc
	parser *jwt.Parser
	logger *slog.Logger
}

// NewJWKSInspector fetches public keys from jwksURL. Keys are cached and
// refreshed by keyfunc.
func NewJWKSInspector(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSInspector, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	logger.Debug("token verifier initialized", "jwks_url", jwksURL)
	return &JWKSInspector{
		jwks:   jwks,
		parser: jwt.NewParser(jwt.WithValidMethods(allowedAlgs)),
		logger: logger,
	}, nil
}

func (v *JWKSInspector) Inspect(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc)
	if err != nil {
		// signature checks run before expiry, so an expired token here is authentic
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil && claims.Subject != "" {
			return claims, fmt.Errorf("%w: %w", ErrExpired, err)
		}
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid || claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (v *JWKSInspector) Close() error { return nil }

// UnverifiedInspector decodes claims without checking the signature. It is
// used when no JWKS URL is configured; the backend remains the authority.
type UnverifiedInspector struct {
	Now func() time.Time
}

func (u UnverifiedInspector) Inspect(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	if claims.ExpiresAt != nil && !now().Before(claims.ExpiresAt.Time) {
		return claims, ErrExpired
	}
	return claims, nil
}

func (UnverifiedInspector) Close() error { return nil }
