package audit

import (
	"net/http"

	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// Record writes an audit log entry for the current request. The entry
// lands in whichever store the request is bound to, with a denormalized
// actor snapshot so it outlives staff deletion. Failures are logged and
// swallowed: an audit write must never fail the action it documents.
func Record(r *http.Request, action string, visitor *domain.Visitor, notes string) {
	user := mw.CurrentUser(r)
	if user == nil {
		logger.WarnContext(r.Context(), "audit entry skipped: no user on request", "action", action)
		return
	}

	repos := mw.Repos(r)
	if repos == nil {
		logger.WarnContext(r.Context(), "audit entry skipped: no repositories on request", "action", action)
		return
	}

	entry := &domain.AuditLog{
		Action:      action,
		VisitorName: visitor.Name,
		PerformedBy: domain.Actor{
			UserID: user.ID,
			Name:   user.Name,
			Role:   user.Role,
		},
		IPAddress: mw.ClientIP(r),
		Notes:     notes,
	}
	// Subject reference is best-effort; a zero id (e.g. staff deletion)
	// stays null.
	if visitor.ID != 0 {
		id := visitor.ID
		entry.VisitorID = &id
	}

	if err := repos.AuditLogs.Create(r.Context(), entry); err != nil {
		logger.ErrorContext(r.Context(), "audit entry failed", "action", action, "error", err)
	}
}
