package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gezielcarvalho/ascauth/internal/common"
	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/auth"
	"github.com/gezielcarvalho/ascauth/internal/server/config"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

// tokenIDBytes sizes the random token identifier: 32 bytes = 256 bits.
const tokenIDBytes = 32

// IssuedToken bundles the signed bearer string with its registry row.
type IssuedToken struct {
	Token  *models.Token
	Signed string
}

// TokenService mints, validates, and rotates bearer tokens. Issuance and
// registry recording happen inside one transaction, so a signed token is
// never handed out without a committed registry row behind it.
type TokenService struct {
	db       *sql.DB
	registry *SessionRegistry
	secret   []byte
	validity time.Duration

	// now is a seam for tests.
	now func() time.Time
}

// NewTokenService constructs a TokenService using the registry and server
// config.
func NewTokenService(db *sql.DB, registry *SessionRegistry, cfg *config.Config) *TokenService {
	return &TokenService{
		db:       db,
		registry: registry,
		secret:   []byte(cfg.SecretKey),
		validity: cfg.AccessTokenValidity,
		now:      time.Now,
	}
}

// Issue mints a new bearer token for the user and records it in the session
// registry. If the registry write fails the transaction rolls back and no
// token escapes; the caller sees common.ErrInternal.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*IssuedToken, error) {
	var issued *IssuedToken
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var mintErr error
		issued, mintErr = s.mint(ctx, tx, user.ID)
		return mintErr
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Validate parses a bearer string and checks the registry row: existence,
// then expiry, then revocation. Expired and unknown tokens are both reported
// as common.ErrTokenNotFound so expiry is never distinguishable from
// absence; revoked tokens yield common.ErrTokenRevoked.
func (s *TokenService) Validate(ctx context.Context, bearer string) (*models.Token, error) {
	claims, err := auth.ParseToken(bearer, s.secret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrTokenNotFound
		}
		return nil, common.ErrInvalidToken
	}

	token, err := s.registry.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, err
	}

	if token.UserID != claims.UserID {
		return nil, common.ErrTokenNotFound
	}
	if token.Expired(s.now()) {
		return nil, common.ErrTokenNotFound
	}
	if token.Revoked {
		return nil, common.ErrTokenRevoked
	}

	return token, nil
}

// Refresh revokes the presented token and issues a replacement in a single
// transaction. If the old token is no longer live the whole rotation fails
// with common.ErrTokenNotFound and nothing is issued.
func (s *TokenService) Refresh(ctx context.Context, old *models.Token) (*IssuedToken, error) {
	var issued *IssuedToken
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.registry.Revoke(ctx, tx, old.ID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrTokenNotFound
			}
			return err
		}
		var mintErr error
		issued, mintErr = s.mint(ctx, tx, old.UserID)
		return mintErr
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Revoke invalidates a single token (logout). Revoking a token that is
// already gone yields common.ErrTokenNotFound.
func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	if err := s.registry.Revoke(ctx, nil, tokenID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrTokenNotFound
		}
		return err
	}
	return nil
}

func (s *TokenService) mint(ctx context.Context, tx dbx.DBTX, userID string) (*IssuedToken, error) {
	tokenID, err := common.MakeRandHexString(tokenIDBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: generating token id: %v", common.ErrInternal, err)
	}

	now := s.now()
	token := &models.Token{
		ID:        tokenID,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	}

	signed, err := auth.GenerateToken(token.ID, token.UserID, s.secret, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: signing token: %v", common.ErrInternal, err)
	}

	if err := s.registry.Record(ctx, tx, token); err != nil {
		return nil, fmt.Errorf("%w: recording token: %v", common.ErrInternal, err)
	}

	return &IssuedToken{Token: token, Signed: signed}, nil
}
