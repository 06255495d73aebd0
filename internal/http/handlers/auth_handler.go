package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/http/response"
	"github.com/sentinelworks/gatepass/internal/platform/auth"
	"github.com/sentinelworks/gatepass/internal/platform/mailer"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/internal/uploads"
	"github.com/sentinelworks/gatepass/pkg/config"
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// AuthHandler operates on the production store only: authentication
// always targets production, including for demo accounts.
type AuthHandler struct {
	Users   postgres.UserRepository
	Mailer  mailer.Service
	Uploads *uploads.Store
	Cfg     *config.Config
}

func NewAuthHandler(users postgres.UserRepository, mail mailer.Service, up *uploads.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Mailer: mail, Uploads: up, Cfg: cfg}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid input")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	u, err := h.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "login lookup failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if u == nil || !u.IsActive {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	ok, _ := argon2id.ComparePasswordAndHash(in.Password, u.PasswordHash)
	if !ok {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	// Every demo login starts a fresh session; the quota for pass
	// creation is scoped to this id.
	if u.IsDemo {
		sessionID := uuid.NewString()
		if err := h.Users.SetDemoSessionID(r.Context(), u.ID, sessionID); err != nil {
			logger.ErrorContext(r.Context(), "demo session rotation failed", "error", err)
			response.InternalError(w, "Server error")
			return
		}
		u.DemoSessionID = &sessionID
	}

	token, err := auth.NewAccessToken(u.ID, u.Email, u.Role, u.IsDemo, h.Cfg.Auth.JWTSecret, h.Cfg.Auth.AccessTokenTTL)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"expires_in":   int64(h.Cfg.Auth.AccessTokenTTL.Seconds()),
		"user":         u.ToUserInfo(h.Cfg.Server.BaseURL),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; the client drops its copy.
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u := mw.CurrentUser(r)
	if u == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}
	response.WriteJSON(w, http.StatusOK, u.ToUserInfo(h.Cfg.Server.BaseURL))
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	u := mw.CurrentUser(r)
	if u == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Password) < 6 {
		response.BadRequest(w, "password must be at least 6 characters")
		return
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}

	if err := h.Users.UpdatePassword(r.Context(), u.ID, hash); err != nil {
		logger.ErrorContext(r.Context(), "password update failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *AuthHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	u := mw.CurrentUser(r)
	if u == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	photo, err := h.Uploads.SavePhoto(r, "photo")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if photo == "" {
		response.BadRequest(w, "No file uploaded")
		return
	}

	if err := h.Users.UpdatePhoto(r.Context(), u.ID, photo); err != nil {
		logger.ErrorContext(r.Context(), "photo update failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message":   "Photo updated successfully",
		"photo":     photo,
		"photo_url": strings.TrimRight(h.Cfg.Server.BaseURL, "/") + "/" + photo,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// Same response whether or not the account exists.
	accepted := func() {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "If that account exists, a reset link has been sent",
		})
	}

	u, err := h.Users.FindByEmail(r.Context(), email)
	if err != nil || u == nil {
		accepted()
		return
	}

	token := uuid.NewString()
	tokenHash := hashToken(token)
	expiry := time.Now().Add(h.Cfg.Auth.ResetTokenTTL)

	if err := h.Users.SetResetToken(r.Context(), u.ID, tokenHash, expiry); err != nil {
		logger.ErrorContext(r.Context(), "reset token store failed", "error", err)
		accepted()
		return
	}

	resetURL := strings.TrimRight(h.Cfg.Server.BaseURL, "/") + "/reset-password/" + token
	if err := h.Mailer.SendPasswordReset(u.Email, u.Name, resetURL); err != nil {
		logger.ErrorContext(r.Context(), "reset mail failed", "error", err)
	}

	accepted()
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Password) < 6 {
		response.BadRequest(w, "password must be at least 6 characters")
		return
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w, "Server error")
		return
	}

	ok, err := h.Users.ConsumeResetToken(r.Context(), hashToken(token), hash)
	if err != nil {
		logger.ErrorContext(r.Context(), "reset token consume failed", "error", err)
		response.InternalError(w, "Server error")
		return
	}
	if !ok {
		response.Unauthorized(w, "Invalid or expired reset token")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func hashToken(token string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(token)))
}
