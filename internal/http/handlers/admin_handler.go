package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
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

type AdminHandler struct {
	Uploads   *uploads.Store
	Publisher events.Publisher
	Cfg       *config.Config
}

func NewAdminHandler(up *uploads.Store, pub events.Publisher, cfg *config.Config) *AdminHandler {
	return &AdminHandler{Uploads: up, Publisher: pub, Cfg: cfg}
}

// CreateSecurity registers a staff account in whichever store the
// request is bound to; in demo mode new staff stay inside the demo
// store (the demo guard blocks this route for demo callers anyway).
func (h *AdminHandler) CreateSecurity(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	in := domain.CreateUserRequest{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		Phone:       r.FormValue("phone"),
		Designation: r.FormValue("designation"),
		Role:        r.FormValue("role"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	existing, err := repos.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if existing != nil {
		response.WriteError(w, http.StatusBadRequest, "User already exists", response.CodeEmailExists)
		return
	}

	photo, err := h.Uploads.SavePhoto(r, "photo")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Designation:  in.Designation,
		Photo:        photo,
		StaffID:      domain.NewStaffID(time.Now()),
		IsActive:     true,
	}

	created, err := repos.Users.Create(r.Context(), u)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff create failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	if err := h.Publisher.Publish(r.Context(), events.StaffCreated, events.StaffCreatedEvent{
		UserID:    created.ID,
		StaffID:   created.StaffID,
		Role:      created.Role,
		CreatedAt: created.CreatedAt,
	}); err != nil {
		logger.WarnContext(r.Context(), "staff.created publish failed", "error", err)
	}

	response.WriteJSON(w, http.StatusCreated, created.ToUserInfo(h.Cfg.Server.BaseURL))
}

// DeleteUser removes a staff account. Admin accounts and the demo
// bootstrap accounts stay; the stored photo is cleaned up best-effort.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	u, err := repos.Users.FindByID(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "user lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if u == nil {
		response.NotFound(w, "User not found")
		return
	}
	if u.Role == domain.RoleAdmin {
		response.BadRequest(w, "Cannot delete admin user")
		return
	}
	if u.IsDemo {
		response.BadRequest(w, "Cannot delete demo account")
		return
	}

	if err := repos.Users.Delete(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "user delete failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	if err := h.Uploads.Delete(u.Photo); err != nil {
		logger.WarnContext(r.Context(), "photo cleanup failed", "photo", u.Photo, "error", err)
	}

	audit.Record(r, domain.ActionDelete, &domain.Visitor{Name: u.Name, ID: 0}, "Staff account removed ("+u.Email+")")

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)
	ctx := r.Context()

	today := time.Now().Truncate(24 * time.Hour)

	totalToday, err := repos.Visitors.CountCreatedSince(ctx, today)
	if err != nil {
		logger.ErrorContext(ctx, "dashboard count failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	active, err := repos.Visitors.CountByStatus(ctx, domain.StatusActive)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}
	completed, err := repos.Visitors.CountByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}
	staff, err := repos.Users.CountByRole(ctx, domain.RoleSecurity)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int64{
		"total_visitors_today": totalToday,
		"active_passes":        active,
		"completed_visits":     completed,
		"total_security_staff": staff,
	})
}

// Visitors lists all visitors with pagination for the admin console.
func (h *AdminHandler) Visitors(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	filter := postgres.VisitorFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	total, err := repos.Visitors.Count(r.Context(), postgres.VisitorFilter{})
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor count failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	visitors, err := repos.Visitors.List(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor list failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if visitors == nil {
		visitors = []domain.Visitor{}
	}

	pages := (total + int64(limit) - 1) / int64(limit)

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"visitors": visitors,
		"page":     page,
		"pages":    pages,
		"total":    total,
	})
}

func (h *AdminHandler) SearchVisitors(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	visitors, err := repos.Visitors.List(r.Context(), postgres.VisitorFilter{
		Keyword: r.URL.Query().Get("keyword"),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "visitor search failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if visitors == nil {
		visitors = []domain.Visitor{}
	}

	response.WriteJSON(w, http.StatusOK, visitors)
}

func (h *AdminHandler) SecurityUsers(w http.ResponseWriter, r *http.Request) {
	repos := mw.Repos(r)

	users, err := repos.Users.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "staff list failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo(h.Cfg.Server.BaseURL))
	}

	response.WriteJSON(w, http.StatusOK, infos)
}
