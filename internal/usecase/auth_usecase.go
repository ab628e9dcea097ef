// Package usecase defines the application's use case interfaces (input ports).
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoginInput carries the credentials submitted to the login operation.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries both possible sources of the refresh token. A token
// supplied in the request body takes precedence over the cookie and switches
// the rotation into slide mode, extending the session expiry.
type RefreshInput struct {
	// RefreshToken is the body-supplied token; nil when the body omitted it.
	RefreshToken *string
	// CookieToken is the token read from the session cookie; empty when absent.
	CookieToken string
}

// LogoutInput identifies the caller and the session cookie being ended.
type LogoutInput struct {
	// UserID is the authenticated caller, taken from the verified access token.
	UserID uuid.UUID
	// CookieToken is the refresh token from the session cookie; empty when absent.
	CookieToken string
}

// TokenPairOutput is the result of a successful login or refresh.
type TokenPairOutput struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// AuthUsecase defines the authentication operations exposed to the delivery layer.
type AuthUsecase interface {
	// Login verifies credentials and starts a new session. Unknown usernames
	// and wrong passwords produce the same error.
	Login(ctx context.Context, input *LoginInput) (*TokenPairOutput, error)

	// Refresh rotates the session's refresh token and issues a new access
	// token. Concurrent refreshes of the same token share one rotation.
	Refresh(ctx context.Context, input *RefreshInput) (*TokenPairOutput, error)

	// Logout ends the session identified by the cookie token. It succeeds even
	// when the session is already gone or belongs to another user; the caller
	// always clears the cookie.
	Logout(ctx context.Context, input *LogoutInput) error
}
