// Package services contains the server-side business logic: credential
// verification, token issuance/validation, and the session registry.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gezielcarvalho/ascauth/internal/common"
	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/auth"
	"github.com/gezielcarvalho/ascauth/internal/server/config"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CredentialService verifies and maintains username/password credentials.
// It owns no tokens; token lifecycle belongs to TokenService and
// SessionRegistry.
type CredentialService struct {
	db                *sql.DB
	repos             repomanager.RepositoryManager
	registry          *SessionRegistry
	minPasswordLength int
	bcryptCost        int

	// dummyHash is compared against when a login targets an unknown email,
	// so lookup misses cost the same as a wrong password.
	dummyHash string
}

// NewCredentialService constructs a CredentialService using repositories and
// server config.
func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, registry *SessionRegistry, cfg *config.Config) (*CredentialService, error) {
	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := auth.HashPassword(filler, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &CredentialService{
		db:                db,
		repos:             m,
		registry:          registry,
		minPasswordLength: cfg.MinPasswordLength,
		bcryptCost:        cfg.BcryptCost,
		dummyHash:         dummy,
	}, nil
}

// Create registers a new user. The plaintext password is hashed before
// persistence and discarded; a duplicate email yields
// common.ErrDuplicateEmail, a too-short password common.ErrWeakPassword.
func (s *CredentialService) Create(ctx context.Context, email, password, name string) (*models.User, error) {
	if len(password) < s.minPasswordLength {
		return nil, common.ErrWeakPassword
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", common.ErrInternal, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}

	repo := s.repos.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: creating user: %v", common.ErrUnavailable, err)
	}
	return u, nil
}

// Verify checks an email/password pair and returns the matching user.
// An unknown email and a wrong password both yield
// common.ErrInvalidCredentials; the caller cannot tell which occurred.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// burn a compare so the miss is not observable through timing
			auth.CheckPasswordHash(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: looking up user: %v", common.ErrUnavailable, err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a user by ID.
func (s *CredentialService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: looking up user: %v", common.ErrUnavailable, err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every live token for the user in the same transaction.
func (s *CredentialService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < s.minPasswordLength {
		return common.ErrWeakPassword
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("%w: hashing password: %v", common.ErrInternal, err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return fmt.Errorf("%w: updating password: %v", common.ErrUnavailable, err)
		}
		return s.registry.RevokeAll(ctx, tx, userID)
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
