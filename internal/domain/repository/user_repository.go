// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"authd/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines read access to user accounts. Authentication never
// creates or mutates users; account management lives elsewhere.
type UserRepository interface {
	// FindByUsername retrieves a user by their unique login name.
	// The returned entity is a value copy detached from storage.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}
