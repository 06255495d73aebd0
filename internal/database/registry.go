package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sentinelworks/gatepass/pkg/config"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

var (
	ErrNotInitialized = errors.New("production database not connected")
	ErrDemoDisabled   = errors.New("demo database is disabled")
	ErrDemoNotReady   = errors.New("demo database not connected")
)

// Registry owns the two store connections for the lifetime of the
// process: the production pool (always) and the demo pool (only when
// enabled). Both are opened once by Initialize and are read-only state
// afterwards.
type Registry struct {
	prod        *pgxpool.Pool
	demo        *pgxpool.Pool
	demoEnabled bool
}

// Initialize opens the production pool, and the demo pool when the
// feature toggle is on. A failure to reach the production store is
// returned to the caller (main exits on it); a failed demo connection
// is logged and left nil so demo routes fail with a server error
// instead of taking the process down.
func Initialize(ctx context.Context, cfg config.DatabaseConfig) (*Registry, error) {
	prod, err := Connect(ctx, cfg.ProductionURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Production DB connected")

	r := &Registry{prod: prod, demoEnabled: cfg.DemoEnabled}

	if cfg.DemoEnabled {
		demo, err := Connect(ctx, cfg.DemoURL)
		if err != nil {
			logger.Error("Demo DB connection failed", "error", err)
		} else {
			logger.Info("Demo DB connected")
			r.demo = demo
		}
	} else {
		logger.Info("Demo DB connection skipped (DEMO_DB_ENABLED=false)")
	}

	return r, nil
}

// Production returns the production pool or a configuration error if
// the registry was never initialized.
func (r *Registry) Production() (*pgxpool.Pool, error) {
	if r == nil || r.prod == nil {
		return nil, ErrNotInitialized
	}
	return r.prod, nil
}

// Demo returns the demo pool. Disabled and not-yet-connected are
// distinct errors so callers can log the difference, but both surface
// to clients as a generic server error.
func (r *Registry) Demo() (*pgxpool.Pool, error) {
	if r == nil || !r.demoEnabled {
		return nil, ErrDemoDisabled
	}
	if r.demo == nil {
		return nil, ErrDemoNotReady
	}
	return r.demo, nil
}

func (r *Registry) DemoEnabled() bool {
	return r != nil && r.demoEnabled
}

func (r *Registry) Close() {
	if r.prod != nil {
		r.prod.Close()
	}
	if r.demo != nil {
		r.demo.Close()
	}
}
