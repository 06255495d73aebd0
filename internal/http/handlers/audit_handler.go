package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

type AuditHandler struct{}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	filter := domain.AuditLogFilter{
		Action:      q.Get("action"),
		PerformedBy: q.Get("performed_by"),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.StartDate = &t
		}
	}
	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndDate = &end
		}
	}

	logs, err := repos.AuditLogs.List(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit list failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}

	total, err := repos.AuditLogs.Count(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit count failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	pages := (total + int64(limit) - 1) / int64(limit)

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"page":  page,
		"pages": pages,
		"total": total,
	})
}
