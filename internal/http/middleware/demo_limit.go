package middleware

import (
	"fmt"
	"net/http"

	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// DemoPassLimit caps pass creation for demo callers at quota passes per
// login session. The count is scoped to the caller's current
// demo_session_id, so relogging starts a fresh allowance. A demo user
// without a session id (stale token from before session tracking) is
// denied rather than given an unbounded one.
//
// The count-then-insert here is not transactional: two concurrent
// creates from the same session can both pass the check and overshoot
// the quota by one. That matches the original behavior and is accepted;
// exact enforcement would need a serialized conditional insert.
func DemoPassLimit(quota int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil || !user.IsDemo {
				next.ServeHTTP(w, r)
				return
			}

			if user.DemoSessionID == nil || *user.DemoSessionID == "" {
				response.DemoRestricted(w, "Demo Restricted: Please log in again to create passes.")
				return
			}

			repos := Repos(r)
			if repos == nil {
				response.InternalError(w, "Database connection error")
				return
			}

			count, err := repos.Visitors.CountBySession(r.Context(), user.ID, *user.DemoSessionID)
			if err != nil {
				logger.ErrorContext(r.Context(), "demo quota check failed", "error", err)
				response.InternalError(w, "Database connection error")
				return
			}

			if count >= int64(quota) {
				response.DemoLimit(w, fmt.Sprintf("Demo limit reached: Only %d visitor passes per login session are allowed. Relogin to reset.", quota))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
