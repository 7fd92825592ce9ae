// Package sessions declares the repository contract for the token registry:
// the authoritative record of which bearer tokens are currently live.
package sessions

import (
	"context"

	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

// Repository defines operations on token registry rows. Rows are never
// deleted before expiry; revocation flips the revoked flag only.
type Repository interface {
	// Create stores a new registry row for an issued token.
	Create(ctx context.Context, token *models.Token) error

	// Find looks up a registry row by token ID. Absent rows yield
	// common.ErrNotFound.
	Find(ctx context.Context, tokenID string) (*models.Token, error)

	// Revoke marks a live token as revoked. If the token is absent or was
	// already revoked it yields common.ErrNotFound, so revocation is a
	// one-shot transition.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAll marks every live, unexpired token of a user as revoked.
	RevokeAll(ctx context.Context, userID string) error
}
