// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a long-lived, authorized user session.
// It is exchanged for new access tokens after the old one expires, without
// requiring credentials. The token value is an opaque random string; it is
// replaced on every refresh.
type RefreshToken struct {
	ID        uuid.UUID // The unique ID for this specific refresh token record.
	UserID    uuid.UUID // Links this session to the User it belongs to.
	Token     string    // Opaque random token value, unique in storage.
	ExpiresAt time.Time // The exact time when this refresh token becomes invalid.
	CreatedAt time.Time // Timestamp of when this session was created (i.e., when the user logged in).
}

// Expired reports whether the session has passed its absolute expiry at the
// given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AuthPayload is the request-scoped identity extracted from a verified access
// token. It lives for the duration of one inbound request and is never
// persisted.
type AuthPayload struct {
	UserID uuid.UUID
}
