// Package users declares the server-side repository contract for identity
// records.
package users

import (
	"context"

	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

// Repository defines persistence operations for user records. Emails are
// matched case-insensitively by implementations.
type Repository interface {
	// Create stores a new user. A duplicate email yields
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks up a user by email, case-insensitively. Absent users
	// yield common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks up a user by its opaque ID.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
