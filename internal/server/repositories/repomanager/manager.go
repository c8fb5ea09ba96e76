package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkovs/imgboard/internal/dbx"
	"github.com/avolkovs/imgboard/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a database
// handle (either *sql.DB or an open transaction) and exposes a schema
// migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
