package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gezielcarvalho/ascauth/internal/common"
	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO sessions (token_id, user_id, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.IssuedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenID string) (*models.Token, error) {
	query := `
		SELECT token_id, user_id, issued_at, expires_at, revoked
		FROM sessions
		WHERE token_id = $1
	`
	token := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, tokenID).Scan(
		&token.ID, &token.UserID, &token.IssuedAt, &token.ExpiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE sessions SET revoked = TRUE
		WHERE token_id = $1 AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, userID string) error {
	query := `
		UPDATE sessions SET revoked = TRUE
		WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
