package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
	sessionsrepo "github.com/gezielcarvalho/ascauth/internal/server/repositories/sessions"
	usersrepo "github.com/gezielcarvalho/ascauth/internal/server/repositories/users"
)

// --- shared test doubles ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	updateErr    error
	updatedHash  string
	updateCalled bool
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	f.updateCalled = true
	f.updatedHash = hash
	return f.updateErr
}

type fakeSessionsRepo struct {
	createErr error
	created   []*models.Token

	findOut *models.Token
	findErr error

	revokeErr error
	revoked   []string

	revokeAllErr error
	revokedAll   []string
}

func (f *fakeSessionsRepo) Create(ctx context.Context, t *models.Token) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, t)
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, tokenID string) (*models.Token, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeSessionsRepo) Revoke(ctx context.Context, tokenID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, tokenID)
	return nil
}

func (f *fakeSessionsRepo) RevokeAll(ctx context.Context, userID string) error {
	if f.revokeAllErr != nil {
		return f.revokeAllErr
	}
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository             { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository      { return m.s }
