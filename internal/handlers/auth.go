package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/middleware"
	"barber-booking/internal/models"
	"barber-booking/internal/staff"
	"barber-booking/internal/transport"

	"github.com/go-chi/chi/v5"
)

const (
	refreshCookie     = "bb_refresh"
	refreshCookiePath = "/api"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req LoginRequest
	if !s.decode(w, r, log, "staff login", &req) {
		return
	}
	if s.Auth == nil {
		log.Warn("staff login: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	id, err := s.Staff.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, log, "staff login", err)
		return
	}
	if !s.issueTokens(w, log, id) {
		return
	}
	log.Info("staff login: ok", slog.String("username", id.Username), slog.String("role", id.Role))
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok", Username: id.Username, Role: id.Role})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	if s.Auth == nil {
		log.Warn("staff refresh: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		log.Warn("staff refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	claims, err := s.Auth.ParseKind(cookie.Value, auth.TokenRefresh)
	if err != nil {
		log.Warn("staff refresh: invalid refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	id := claims.Identity()
	if !s.issueTokens(w, log, id) {
		return
	}
	log.Info("staff refresh: ok", slog.String("username", id.Username))
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok", Username: id.Username, Role: id.Role})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookies(w, s.Cfg.CookieSecure)
	s.logWithRequest(r).Info("staff logout: ok")
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok"})
}

// Register bootstraps an admin account with the configured setup key.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req staff.CreateRequest
	if !s.decode(w, r, log, "staff register", &req) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	u, err := s.Staff.Register(ctx, req)
	if err != nil {
		writeServiceError(w, log, "staff register", err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, u)
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok", Username: id.Username, Role: id.Role})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req staff.CreateRequest
	if !s.decode(w, r, log, "staff create user", &req) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	u, err := s.Staff.Create(ctx, req)
	if err != nil {
		writeServiceError(w, log, "staff create user", err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, u)
}

// UpdatePassword lets admins reset anyone's password and staff change
// their own.
func (s *Server) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	target := chi.URLParam(r, "id")
	if id, _ := middleware.IdentityFromContext(r.Context()); id.Role != models.RoleAdmin && id.ID != target {
		transport.WriteError(w, http.StatusForbidden, "forbidden", nil)
		return
	}

	var req staff.PasswordRequest
	if !s.decode(w, r, log, "staff password", &req) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	u, err := s.Staff.SetPassword(ctx, target, req.Password)
	if err != nil {
		writeServiceError(w, log, "staff password", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) issueTokens(w http.ResponseWriter, log *slog.Logger, id auth.Identity) bool {
	access, err := s.Auth.NewAccessToken(id)
	if err != nil {
		log.Error("staff token: sign failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}
	refresh, err := s.Auth.NewRefreshToken(id)
	if err != nil {
		log.Error("staff token: sign failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}
	setAuthCookies(w, access, refresh, s.Auth.AccessTTL, s.Auth.RefreshTTL, s.Cfg.CookieSecure)
	return true
}

func setAuthCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshTTL.Seconds()),
	})
}

func clearAuthCookies(w http.ResponseWriter, secure bool) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []struct{ name, path string }{
		{middleware.AccessCookie, "/"},
		{refreshCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
}
