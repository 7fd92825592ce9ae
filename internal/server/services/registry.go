package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gezielcarvalho/ascauth/internal/common"
	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/repomanager"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/sessions"
)

// SessionRegistry owns the token ID → status mapping. Every issued token is
// recorded here, and revocation state read from here is authoritative: no
// cache sits between the registry and its store, so a revoke is visible to
// the next Validate from any caller.
//
// Methods accept an optional dbx.DBTX so they can join a caller's
// transaction; passing nil uses the registry's own pool.
type SessionRegistry struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

// NewSessionRegistry constructs a SessionRegistry over the given pool and
// repository manager.
func NewSessionRegistry(db *sql.DB, m repomanager.RepositoryManager) *SessionRegistry {
	return &SessionRegistry{db: db, repos: m}
}

func (r *SessionRegistry) handle(db dbx.DBTX) sessions.Repository {
	if db == nil {
		return r.repos.Sessions(r.db)
	}
	return r.repos.Sessions(db)
}

// Record stores the registry row for a freshly issued token.
func (r *SessionRegistry) Record(ctx context.Context, db dbx.DBTX, token *models.Token) error {
	if err := r.handle(db).Create(ctx, token); err != nil {
		return fmt.Errorf("%w: record token: %v", common.ErrUnavailable, err)
	}
	return nil
}

// Find returns the registry row for a token ID, or common.ErrNotFound.
func (r *SessionRegistry) Find(ctx context.Context, tokenID string) (*models.Token, error) {
	token, err := r.handle(nil).Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find token: %v", common.ErrUnavailable, err)
	}
	return token, nil
}

// Revoke marks a live token as revoked. A token that is absent or already
// revoked yields common.ErrNotFound; the transition is one-shot and
// absorbing.
func (r *SessionRegistry) Revoke(ctx context.Context, db dbx.DBTX, tokenID string) error {
	if err := r.handle(db).Revoke(ctx, tokenID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: revoke token: %v", common.ErrUnavailable, err)
	}
	return nil
}

// RevokeAll invalidates every live, unexpired token of a user. Used on
// password changes and security events.
func (r *SessionRegistry) RevokeAll(ctx context.Context, db dbx.DBTX, userID string) error {
	if err := r.handle(db).RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("%w: revoke all tokens: %v", common.ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports the revocation state of a token ID. Unknown tokens yield
// common.ErrNotFound.
func (r *SessionRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	token, err := r.Find(ctx, tokenID)
	if err != nil {
		return false, err
	}
	return token.Revoked, nil
}
