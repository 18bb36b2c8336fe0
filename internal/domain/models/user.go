package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AcademicRole is the role chosen at registration.
type AcademicRole string

const (
	AcademicStudent    AcademicRole = "student"
	AcademicResearcher AcademicRole = "researcher"
	AcademicProfessor  AcademicRole = "professor"
)

// User is the authenticated account.
type User struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	Name          string       `json:"name"`
	Avatar        string       `json:"avatar,omitempty"`
	Institution   string       `json:"institution,omitempty"`
	Role          AcademicRole `json:"role,omitempty"`
	EmailVerified bool         `json:"emailVerified"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// AuthResponse is returned by login, register and OAuth exchange.
type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LoginCredentials is the body of POST /auth/login.
type LoginCredentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// RegisterCredentials is the body of POST /auth/register.
type RegisterCredentials struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	Institution string       `json:"institution"`
	Role        AcademicRole `json:"role"`
	AcceptTerms bool         `json:"acceptTerms"`
}

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}
