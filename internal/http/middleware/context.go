package middleware

import (
	"context"
	"net/http"

	"github.com/sentinelworks/gatepass/internal/domain"
	"github.com/sentinelworks/gatepass/internal/store"
)

type ctxKey string

const (
	ctxUser     ctxKey = "user"
	ctxRepos    ctxKey = "repos"
	ctxDemoMode ctxKey = "demo_mode"
)

// ReposSource yields the repository set for each store. Satisfied by
// *store.Source; tests substitute fakes.
type ReposSource interface {
	Production() (*store.Repos, error)
	Demo() (*store.Repos, error)
}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// CurrentUser returns the authenticated caller, or nil on public routes.
func CurrentUser(r *http.Request) *domain.User {
	if u, ok := r.Context().Value(ctxUser).(*domain.User); ok {
		return u
	}
	return nil
}

func withRepos(ctx context.Context, repos *store.Repos, demoMode bool) context.Context {
	ctx = context.WithValue(ctx, ctxRepos, repos)
	return context.WithValue(ctx, ctxDemoMode, demoMode)
}

// Repos returns the repository set the store-context middleware bound
// to this request. Handlers must use this set and never re-derive which
// store to touch.
func Repos(r *http.Request) *store.Repos {
	if repos, ok := r.Context().Value(ctxRepos).(*store.Repos); ok {
		return repos
	}
	return nil
}

func IsDemoMode(r *http.Request) bool {
	demo, _ := r.Context().Value(ctxDemoMode).(bool)
	return demo
}
