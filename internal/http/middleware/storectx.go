package middleware

import (
	"context"
	"net/http"

	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// StoreContext selects which store's repositories the rest of the
// request pipeline uses. It must run after authentication (so the
// caller is known) and before anything that touches a repository.
//
// Demo callers get the demo repositories; everyone else, including
// unauthenticated requests on public routes, gets production. A demo
// caller whose store is disabled or unreachable gets a 500; falling
// back to production would leak demo writes across the store boundary.
func StoreContext(source ReposSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)

			demoMode := user != nil && user.IsDemo

			if demoMode {
				demoRepos, err := source.Demo()
				if err != nil {
					logger.ErrorContext(r.Context(), "demo store unavailable", "error", err, "email", user.Email)
					response.InternalError(w, "Database connection error")
					return
				}
				ctx := withRepos(r.Context(), demoRepos, true)
				ctx = context.WithValue(ctx, logger.StoreKey, "demo")
				logger.DebugContext(ctx, "request bound to demo store")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			prodRepos, err := source.Production()
			if err != nil {
				logger.ErrorContext(r.Context(), "production store unavailable", "error", err)
				response.InternalError(w, "Database connection error")
				return
			}
			ctx := withRepos(r.Context(), prodRepos, false)
			ctx = context.WithValue(ctx, logger.StoreKey, "production")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
