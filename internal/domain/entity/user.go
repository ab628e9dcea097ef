// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the closed set of account states.
type UserStatus string

const (
	// UserStatusActive marks an account that may log in.
	UserStatusActive UserStatus = "ACTIVE"
	// UserStatusDisabled marks an account that is locked out of login.
	UserStatusDisabled UserStatus = "DISABLED"
)

// User is the account record read by the authentication flow. It is owned by
// the user-management side of the system; authentication only reads it.
type User struct {
	ID           uuid.UUID  // The unique identifier for the user.
	Username     string     // Login identifier, unique across the system.
	PasswordHash string     // Hash of the password, derived with the per-user salt.
	Salt         string     // Per-user salt fed into the password hash.
	DisplayName  string     // Human-readable name shown in the admin UI.
	Status       UserStatus // ACTIVE or DISABLED.
	CreatedAt    time.Time  // Timestamp of when this user account was created.
	UpdatedAt    time.Time  // Timestamp of the last modification to this user's data.
}
