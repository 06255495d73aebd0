package middleware

import (
	"net/http"
	"strings"

	"github.com/sentinelworks/gatepass/internal/http/response"
)

// DemoGuard blocks destructive or account-altering actions for demo
// callers. Non-demo callers always pass through untouched. Check-in and
// check-out stay allowed so the demo remains usable.
func DemoGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil || !user.IsDemo {
			next.ServeHTTP(w, r)
			return
		}

		method := r.Method
		path := r.URL.Path

		if method == http.MethodDelete {
			response.DemoRestricted(w, "Demo Restricted: Deletion is disabled in demo mode.")
			return
		}

		if (method == http.MethodPut || method == http.MethodPatch) &&
			(strings.Contains(path, "/profile") || strings.Contains(path, "/password") ||
				strings.Contains(path, "/settings") || strings.Contains(path, "/config")) {
			response.DemoRestricted(w, "Demo Restricted: Profile and settings changes are disabled.")
			return
		}

		if (method == http.MethodPost || method == http.MethodPut) &&
			(strings.Contains(path, "/admin") || strings.Contains(path, "/staff")) {
			response.DemoRestricted(w, "Demo Restricted: Managing staff is disabled.")
			return
		}

		if method == http.MethodGet && strings.Contains(path, "/export") {
			response.DemoRestricted(w, "Demo Restricted: Export is disabled in demo mode.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
