package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/financa/internal/dbx"
	"github.com/dmitrijs2005/financa/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle or transaction,
// runs units of work transactionally and owns schema migration.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
}
