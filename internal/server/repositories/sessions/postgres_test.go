package sessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gezielcarvalho/ascauth/internal/common"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+sessions\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*FALSE\)\s*$`

	now := time.Now()
	mock.ExpectExec(q).
		WithArgs("tok1", "u1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Token{
		ID: "tok1", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+sessions`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Token{ID: "tok1", UserID: "u1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	issued := time.Now()
	rows := sqlmock.NewRows([]string{"token_id", "user_id", "issued_at", "expires_at", "revoked"}).
		AddRow("tok1", "u1", issued, issued.Add(time.Hour), false)

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+sessions\s+WHERE\s+token_id`).
		WithArgs("tok1").
		WillReturnRows(rows)

	tok, err := repo.Find(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.UserID != "u1" || tok.Revoked {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+sessions`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevoke_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+token_id`).
		WithArgs("tok1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Revoke(context.Background(), "tok1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevoke_AlreadyRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// second revocation matches no live row
	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+revoked`).
		WithArgs("tok1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "tok1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevokeAll_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+user_id`).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.RevokeAll(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
