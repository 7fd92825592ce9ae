// Package repomanager vends repository implementations bound to a database
// handle and exposes the schema migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/gezielcarvalho/ascauth/internal/dbx"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/sessions"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a DBTX per call, so the same
// repository code runs against the pool or inside a transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
