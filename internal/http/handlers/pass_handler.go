package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sentinelworks/gatepass/internal/audit"
	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/pkg/events"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

type PassHandler struct {
	Publisher events.Publisher
}

func NewPassHandler(pub events.Publisher) *PassHandler {
	return &PassHandler{Publisher: pub}
}

// Status serves the verification page behind a scanned QR code. The
// route is public; with no caller to branch on, the store-context
// middleware binds it to the production store.
func (h *PassHandler) Status(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	v, err := repos.Visitors.FindByPassID(r.Context(), chi.URLParam(r, "passID"))
	if err != nil {
		logger.ErrorContext(r.Context(), "pass lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if v == nil {
		response.NotFound(w, "Invalid Pass")
		return
	}

	// Active passes past their expiry flip to expired on read.
	if v.Expired(time.Now()) {
		if err := repos.Visitors.UpdateStatus(r.Context(), v.ID, domain.StatusExpired); err != nil {
			logger.ErrorContext(r.Context(), "pass expiry update failed", "error", err)
		} else {
			v.Status = domain.StatusExpired
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	response.WriteJSON(w, http.StatusOK, v)
}

// CheckIn records gate entry against an active pass. The pass stays
// active until checkout; expired or completed passes are rejected.
func (h *PassHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	v, err := repos.Visitors.FindByPassID(r.Context(), chi.URLParam(r, "passID"))
	if err != nil {
		logger.ErrorContext(r.Context(), "pass lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if v == nil {
		response.NotFound(w, "Invalid Pass")
		return
	}

	if v.Expired(time.Now()) {
		if err := repos.Visitors.UpdateStatus(r.Context(), v.ID, domain.StatusExpired); err != nil {
			logger.ErrorContext(r.Context(), "pass expiry update failed", "error", err)
		}
		v.Status = domain.StatusExpired
		response.WriteError(w, http.StatusBadRequest, "Pass has expired", response.CodePassExpired)
		return
	}

	if v.Status != domain.StatusActive {
		response.BadRequest(w, "Pass is already "+v.Status)
		return
	}

	audit.Record(r, domain.ActionEntry, v, "Pass checked in ("+v.PassID+")")

	if err := h.Publisher.Publish(r.Context(), events.PassCheckedIn, events.PassCheckedInEvent{
		VisitorID:   v.ID,
		PassID:      v.PassID,
		CheckedInAt: time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "pass.checked_in publish failed", "error", err)
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Pass checked in",
		"visitor": v,
	})
}

// UpdateStatus moves a pass to completed (checkout by pass code) or
// expired. Invalid transitions are rejected.
func (h *PassHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !domain.IsValidStatus(in.Status) {
		response.BadRequest(w, "Invalid status value")
		return
	}

	v, err := repos.Visitors.FindByPassID(r.Context(), chi.URLParam(r, "passID"))
	if err != nil {
		logger.ErrorContext(r.Context(), "pass lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if v == nil {
		response.NotFound(w, "Invalid Pass")
		return
	}

	if v.Expired(time.Now()) {
		if err := repos.Visitors.UpdateStatus(r.Context(), v.ID, domain.StatusExpired); err != nil {
			logger.ErrorContext(r.Context(), "pass expiry update failed", "error", err)
		}
		v.Status = domain.StatusExpired
		response.WriteError(w, http.StatusBadRequest, "Pass has expired", response.CodePassExpired)
		return
	}

	if v.Status != domain.StatusActive {
		response.BadRequest(w, "Pass is already "+v.Status)
		return
	}

	switch in.Status {
	case domain.StatusCompleted:
		exitTime := time.Now()
		updated, err := repos.Visitors.MarkExit(r.Context(), v.ID, exitTime)
		if err != nil || updated == nil {
			logger.ErrorContext(r.Context(), "pass checkout failed", "error", err)
			response.InternalError(w, "Server error")
			return
		}
		audit.Record(r, domain.ActionExit, updated, "Pass checked out ("+updated.PassID+")")
		v = updated
	case domain.StatusExpired:
		if err := repos.Visitors.UpdateStatus(r.Context(), v.ID, domain.StatusExpired); err != nil {
			logger.ErrorContext(r.Context(), "pass status update failed", "error", err)
			response.InternalError(w, "Server error")
			return
		}
		v.Status = domain.StatusExpired
	default:
		response.BadRequest(w, "Pass is already active")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Pass status updated to " + v.Status,
		"visitor": v,
	})
}
