package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultGuard = "web"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Login failure reasons, recorded on login_failed audit entries.
const (
	ReasonUnknownEmail = "unknown_email"
	ReasonBadPassword  = "bad_password"
	ReasonInactive     = "inactive"
)

// TokenGenerator creates and verifies signed tokens bound to a tenant.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, email string, tenantID int64) (string, error)
	GenerateRefreshToken(userID int64, email string, tenantID int64) (string, error)
	ValidateToken(tokenString, tokenType string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TenantID  int64  `json:"tenant_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}
