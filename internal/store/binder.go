package store

import (
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
)

var ErrNilPool = errors.New("store: nil connection pool")

// Repos is the repository set bound to a single store. Requests receive
// one of these from the store-context middleware and must not care
// which store backs it.
type Repos struct {
	Users     postgres.UserRepository
	Visitors  postgres.VisitorRepository
	AuditLogs postgres.AuditLogRepository
}

// Binder hands out the repository set for a pool, constructing it at
// most once per pool. Binding the same pool twice returns the same
// *Repos, so both calls operate on the same underlying tables.
type Binder struct {
	mu    sync.Mutex
	cache map[*pgxpool.Pool]*Repos
}

func NewBinder() *Binder {
	return &Binder{cache: make(map[*pgxpool.Pool]*Repos)}
}

func (b *Binder) Bind(pool *pgxpool.Pool) (*Repos, error) {
	if pool == nil {
		return nil, ErrNilPool
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if repos, ok := b.cache[pool]; ok {
		return repos, nil
	}

	repos := &Repos{
		Users:     postgres.NewUserRepository(pool),
		Visitors:  postgres.NewVisitorRepository(pool),
		AuditLogs: postgres.NewAuditLogRepository(pool),
	}
	b.cache[pool] = repos

	return repos, nil
}
