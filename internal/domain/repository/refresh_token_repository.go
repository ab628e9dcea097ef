// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"authd/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrRefreshTokenNotFound is returned when a refresh token is not found.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository defines persistence for refresh token sessions.
// The table is unique on the opaque token value. Entities handed back are
// value copies; storage changes only through explicit calls here.
type RefreshTokenRepository interface {
	// Create persists a new session for the user. A fresh random token value
	// is generated and the absolute expiry is computed from the ttl duration
	// string ("7d", "12h", ...).
	Create(ctx context.Context, userID uuid.UUID, ttl string) (*entity.RefreshToken, error)

	// FindByToken retrieves a session by its opaque token value.
	FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error)

	// Rotate replaces the session's token value with a fresh random one.
	// With slide set, the expiry is also recomputed from now using the ttl
	// duration string; otherwise the stored expiry is carried over unchanged.
	// The update is keyed by the row's durable id, since the token value
	// itself is being replaced in the same statement.
	Rotate(ctx context.Context, existing *entity.RefreshToken, slide bool, ttl string) (*entity.RefreshToken, error)

	// Revoke deletes the session with the given token value. Revoking an
	// absent token returns ErrRefreshTokenNotFound; callers decide whether
	// that matters.
	Revoke(ctx context.Context, token string) error
}
