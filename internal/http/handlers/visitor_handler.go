package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sentinelworks/gatepass/internal/audit"
	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/internal/uploads"
	"github.com/sentinelworks/gatepass/pkg/config"
	"github.com/sentinelworks/gatepass/pkg/events"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

type VisitorHandler struct {
	Uploads   *uploads.Store
	Publisher events.Publisher
	Cfg       *config.Config
}

func NewVisitorHandler(up *uploads.Store, pub events.Publisher, cfg *config.Config) *VisitorHandler {
	return &VisitorHandler{Uploads: up, Publisher: pub, Cfg: cfg}
}

func (h *VisitorHandler) List(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	filter := visitorFilter(r)
	visitors, err := repos.Visitors.List(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor list failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if visitors == nil {
		visitors = []domain.Visitor{}
	}

	response.WriteJSON(w, http.StatusOK, visitors)
}

// Create issues a new visitor pass. For demo callers the pass is tagged
// with the caller's current demo session id; the tag is set once here
// and never updated afterwards.
func (h *VisitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := mw.CurrentUser(r)
	repos := mw.Repos(r)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	in := domain.CreateVisitorRequest{
		Name:          r.FormValue("name"),
		Phone:         r.FormValue("phone"),
		Purpose:       r.FormValue("purpose"),
		IDProofNumber: r.FormValue("id_proof_number"),
		PersonToMeet:  r.FormValue("person_to_meet"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	photo, err := h.Uploads.SavePhoto(r, "photo")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	now := time.Now()
	v := &domain.Visitor{
		Name:          in.Name,
		Phone:         in.Phone,
		Purpose:       in.Purpose,
		IDProofNumber: in.IDProofNumber,
		PersonToMeet:  in.PersonToMeet,
		Photo:         photo,
		Status:        domain.StatusActive,
		EntryTime:     now,
		ExpiryTime:    now.Add(h.Cfg.Passes.TTL),
		CreatedBy:     user.ID,
	}
	if user.IsDemo {
		v.DemoSessionID = user.DemoSessionID
	}

	// Pass codes are short; retry on the rare collision.
	var created *domain.Visitor
	for attempt := 0; attempt < 5; attempt++ {
		v.PassID = domain.NewPassID(now)
		created, err = repos.Visitors.Create(r.Context(), v)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor create failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	audit.Record(r, domain.ActionCreate, created, "Visitor pass issued ("+created.PassID+")")

	if err := h.Publisher.Publish(r.Context(), events.PassCreated, events.PassCreatedEvent{
		VisitorID:    created.ID,
		PassID:       created.PassID,
		VisitorName:  created.Name,
		PersonToMeet: created.PersonToMeet,
		DemoMode:     mw.IsDemoMode(r),
		CreatedAt:    created.CreatedAt,
	}); err != nil {
		logger.WarnContext(r.Context(), "pass.created publish failed", "error", err)
	}

	response.WriteJSON(w, http.StatusCreated, created)
}

func (h *VisitorHandler) Today(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	visitors, err := repos.Visitors.ListToday(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "today list failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if visitors == nil {
		visitors = []domain.Visitor{}
	}

	response.WriteJSON(w, http.StatusOK, visitors)
}

func (h *VisitorHandler) Scan(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	v, err := repos.Visitors.FindByPassID(r.Context(), chi.URLParam(r, "passID"))
	if err != nil {
		logger.ErrorContext(r.Context(), "pass scan failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if v == nil {
		response.NotFound(w, "Visitor pass not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, v)
}

// MarkExit checks a visitor out: active -> completed.
func (h *VisitorHandler) MarkExit(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid visitor id")
		return
	}

	v, err := repos.Visitors.FindByID(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if v == nil {
		response.NotFound(w, "Visitor not found")
		return
	}
	if v.Status == domain.StatusCompleted {
		response.BadRequest(w, "Visitor already checked out")
		return
	}

	exitTime := time.Now()
	updated, err := repos.Visitors.MarkExit(r.Context(), id, exitTime)
	if err != nil || updated == nil {
		logger.ErrorContext(r.Context(), "checkout failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	audit.Record(r, domain.ActionExit, updated, "Visitor checked out")

	if err := h.Publisher.Publish(r.Context(), events.VisitorCheckout, events.VisitorCheckoutEvent{
		VisitorID: updated.ID,
		PassID:    updated.PassID,
		ExitTime:  exitTime,
	}); err != nil {
		logger.WarnContext(r.Context(), "visitor.checkout publish failed", "error", err)
	}

	response.WriteJSON(w, http.StatusOK, updated)
}

// Export streams all visitors as CSV. The demo guard blocks this route
// for demo callers.
func (h *VisitorHandler) Export(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	visitors, err := repos.Visitors.List(r.Context(), visitorFilter(r))
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor export failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="visitors.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"pass_id", "name", "phone", "purpose", "person_to_meet", "status", "entry_time", "exit_time"})
	for _, v := range visitors {
		exit := ""
		if v.ExitTime != nil {
			exit = v.ExitTime.Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			v.PassID, v.Name, v.Phone, v.Purpose, v.PersonToMeet, v.Status,
			v.EntryTime.Format(time.RFC3339), exit,
		})
	}
	cw.Flush()
}

func visitorFilter(r *http.Request) postgres.VisitorFilter {
	return postgres.VisitorFilter{
		Status:  r.URL.Query().Get("status"),
		Keyword: r.URL.Query().Get("keyword"),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
