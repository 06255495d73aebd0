package demo

import (
	"context"

	"github.com/alexedwards/argon2id"
	"github.com/sentinelworks/gatepass/internal/domain"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/pkg/config"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// Bootstrap guarantees the two well-known demo accounts on startup:
// they must exist in the production store (login always authenticates
// against production) and be mirrored into the demo store so records
// created there can reference a valid owner.
type Bootstrap struct {
	cfg config.DemoConfig
}

func NewBootstrap(cfg config.DemoConfig) *Bootstrap {
	return &Bootstrap{cfg: cfg}
}

func definitions(cfg config.DemoConfig) []domain.User {
	return []domain.User{
		{
			Name:        "Demo Admin",
			Email:       cfg.AdminEmail,
			Role:        domain.RoleAdmin,
			Designation: "System Administrator - Demo",
			IsActive:    true,
			IsDemo:      true,
		},
		{
			Name:        "Demo Security",
			Email:       cfg.SecurityEmail,
			Role:        domain.RoleSecurity,
			Designation: "Front Desk Security - Demo",
			IsActive:    true,
			IsDemo:      true,
		},
	}
}

// Ensure is idempotent: rerunning it creates no duplicates and never
// resets a password an operator may have changed. Store outages are
// logged and tolerated; the server still serves non-demo traffic.
func (b *Bootstrap) Ensure(ctx context.Context, prodUsers, demoUsers postgres.UserRepository) {
	hash, err := argon2id.CreateHash(b.cfg.Password, argon2id.DefaultParams)
	if err != nil {
		logger.Error("demo bootstrap: hash failed", "error", err)
		return
	}

	for _, def := range definitions(b.cfg) {
		def.PasswordHash = hash

		prodUser, err := ensureInProduction(ctx, prodUsers, def)
		if err != nil {
			logger.Error("demo bootstrap: production seed failed", "email", def.Email, "error", err)
			continue
		}

		if demoUsers == nil {
			continue
		}

		if err := mirrorToDemo(ctx, demoUsers, prodUser); err != nil {
			logger.Error("demo bootstrap: demo sync failed", "email", def.Email, "error", err)
		}
	}
}

// ensureInProduction creates the account if absent; if present it only
// flips is_demo when needed. The existing password hash is left alone.
func ensureInProduction(ctx context.Context, users postgres.UserRepository, def domain.User) (*domain.User, error) {
	existing, err := users.FindByEmail(ctx, def.Email)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		created, err := users.Create(ctx, &def)
		if err != nil {
			return nil, err
		}
		logger.Info("demo bootstrap: created production account", "email", def.Email)
		return created, nil
	}

	if !existing.IsDemo {
		if err := users.SetDemoFlag(ctx, existing.ID, true); err != nil {
			return nil, err
		}
		existing.IsDemo = true
		logger.Info("demo bootstrap: flagged existing account as demo", "email", def.Email)
	}

	return existing, nil
}

// mirrorToDemo matches by email: the two stores assign their own
// primary keys, so the production id is never forced into the demo row.
func mirrorToDemo(ctx context.Context, users postgres.UserRepository, prodUser *domain.User) error {
	existing, err := users.FindByEmail(ctx, prodUser.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	clone := *prodUser
	clone.ID = 0
	if _, err := users.Create(ctx, &clone); err != nil {
		return err
	}
	logger.Info("demo bootstrap: mirrored account into demo store", "email", prodUser.Email)
	return nil
}
