package service

import (
	"authd/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Sentinel outcomes of token verification. Expiry is an expected, routine
// event on every idle session and must stay distinguishable from tampering.
var (
	// ErrTokenExpired is returned when a structurally valid token has passed
	// its expiration time.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed tokens or bad signatures.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenService defines the interface for issuing and verifying access tokens.
// Access tokens are stateless: the server keeps no record of them and cannot
// revoke one before its natural expiry.
type TokenService interface {
	// Sign issues a signed access token carrying the user id and an
	// expiration derived from the configured access-token duration.
	Sign(userID uuid.UUID) (string, error)

	// Verify checks the signature and expiry of a token string and returns
	// the identity it carries. Expired tokens yield ErrTokenExpired and
	// malformed ones ErrTokenInvalid.
	Verify(tokenString string) (*entity.AuthPayload, error)
}
