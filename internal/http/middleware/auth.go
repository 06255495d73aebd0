package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/internal/platform/auth"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// Protect authenticates the bearer token and loads the caller's user
// record. Lookup always targets the production store: demo identities
// authenticate against production too, which is what lets the store
// resolver branch on their is_demo flag afterwards. The record is
// re-read per request so the demo session id reflects the most recent
// login, not the one baked into the token.
func Protect(source ReposSource, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid authorization token")
				return
			}

			repos, err := source.Production()
			if err != nil {
				logger.ErrorContext(r.Context(), "auth lookup failed", "error", err)
				response.InternalError(w, "Database connection error")
				return
			}

			user, err := repos.Users.FindByID(r.Context(), claims.Sub)
			if err != nil {
				logger.ErrorContext(r.Context(), "auth lookup failed", "error", err)
				response.InternalError(w, "Database connection error")
				return
			}
			if user == nil || !user.IsActive {
				response.Unauthorized(w, "User not found")
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize restricts a route to the given roles. Runs after Protect.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, "Not authorized")
		})
	}
}
