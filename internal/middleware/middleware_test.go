package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/cache"
	"barber-booking/internal/logging"
	"barber-booking/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterSharesCounters(t *testing.T) {
	store := cache.NewMemory()
	// two limiters over one store behave like two instances behind Redis
	a := NewRateLimiter("verify", 2, time.Minute, store, logging.Discard()).Middleware(okHandler())
	b := NewRateLimiter("verify", 2, time.Minute, store, logging.Discard()).Middleware(okHandler())

	codes := make([]int, 0, 3)
	for _, h := range []http.Handler{a, b, a} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other clients must not share the budget, got %d", rec.Code)
	}
}

func TestStaffAuth(t *testing.T) {
	manager := &auth.Manager{Secret: []byte("secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour, Issuer: "test"}
	var seen auth.Identity
	h := StaffAuth("key", manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	}))

	serve := func(mutate func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(func(*http.Request) {}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", code)
	}
	if code := serve(func(r *http.Request) { r.Header.Set("X-Admin-Key", "nope") }); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong key, got %d", code)
	}
	if code := serve(func(r *http.Request) { r.Header.Set("X-Admin-Key", "key") }); code != http.StatusOK || seen != APIKeyIdentity {
		t.Fatalf("api key rejected: %d %+v", code, seen)
	}

	id := auth.Identity{ID: "u1", Username: "mihai", Role: models.RoleStaff}
	access, _ := manager.NewAccessToken(id)
	refresh, _ := manager.NewRefreshToken(id)

	if code := serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: refresh}) }); code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not act as access token, got %d", code)
	}
	if code := serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: access}) }); code != http.StatusOK || seen != id {
		t.Fatalf("access cookie rejected: %d %+v", code, seen)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), auth.Identity{ID: "u1", Role: models.RoleStaff}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequestIDIsReused(t *testing.T) {
	var got string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected incoming id to be kept, got %q", got)
	}
}
