package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/financa/internal/dbx"
	"github.com/dmitrijs2005/financa/internal/server/repositories/users"
)

// MemoryDSN selects the in-memory store instead of PostgreSQL.
const MemoryDSN = "memory://"

// InMemoryRepositoryManager serves process-local repositories. The db
// handles passed to it are ignored; WithTx serialises units of work.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	users *users.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}
