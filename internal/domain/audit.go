package domain

import "time"

type AuditLog struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	VisitorID   *int64    `json:"visitor_id,omitempty"`
	VisitorName string    `json:"visitor_name"`
	PerformedBy Actor     `json:"performed_by"`
	IPAddress   string    `json:"ip_address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Actor is a denormalized snapshot of the staff member who performed
// the action, kept even if the account is later deleted.
type Actor struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Audit actions
const (
	ActionEntry   = "ENTRY"
	ActionExit    = "EXIT"
	ActionDelete  = "DELETE"
	ActionCreate  = "CREATE"
	ActionApprove = "APPROVE"
)

// AuditLogFilter narrows audit log queries.
type AuditLogFilter struct {
	Action      string
	PerformedBy string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}
