package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/booking"
	"barber-booking/internal/config"
	"barber-booking/internal/handlers"
	"barber-booking/internal/logging"
	"barber-booking/internal/middleware"
	"barber-booking/internal/models"
	"barber-booking/internal/staff"
	"barber-booking/internal/storetest"
	"barber-booking/internal/sweeper"
	"barber-booking/internal/validation"

	"github.com/go-chi/chi/v5"
)

const adminKey = "test-admin-key"

var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type harness struct {
	env    *storetest.Env
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := storetest.NewEnv(monday)
	log := logging.Discard()
	cfg := &config.Config{AdminAPIKey: adminKey, AdminUser: "owner", AdminPassword: "owner-pass"}

	srv := &handlers.Server{
		Cfg:          cfg,
		Val:          validation.New(),
		Log:          log,
		Auth:         &auth.Manager{Secret: []byte("secret"), AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour, Issuer: "test"},
		Catalog:      env.Catalog,
		Availability: env.Availability,
		Bookings:     env.Lifecycle,
		Blocks:       env.Blocks,
		Clients:      env.Clients,
		Sweeper: sweeper.New(sweeper.Deps{
			Bookings: env.BookingRepo,
			Expirer:  env.Lifecycle,
			Clients:  env.Clients,
			Blocks:   env.Blocks,
			Locks:    env.Locks,
		}, sweeper.Options{}, env.Location, log).WithClock(env.Clock.Now),
		Staff: staff.NewService(storetest.NewUsers(), staff.Fallback{Username: cfg.AdminUser, Password: cfg.AdminPassword}, env.Location, log),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Route("/api/v1", srv.Routes)
	return &harness{env: env, router: r}
}

type call struct {
	method  string
	path    string
	body    interface{}
	key     bool
	cookies []*http.Cookie
}

func (h *harness) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, "/api/v1"+c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.key {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (h *harness) book(t *testing.T, date, clock string) models.Booking {
	t.Helper()
	rec := h.do(t, call{method: http.MethodPost, path: "/reservations/claim", body: map[string]interface{}{
		"date": date, "time": clock, "serviceId": storetest.Haircut.ID,
	}})
	expectStatus(t, rec, http.StatusOK)
	var claimed booking.ClaimResult
	decodeBody(t, rec, &claimed)

	rec = h.do(t, call{method: http.MethodPost, path: "/reservations", body: map[string]interface{}{
		"sessionToken": claimed.SessionToken,
		"name":         "Andrei Popescu",
		"phone":        "+40 712 345 678",
		"email":        "andrei@example.com",
	}})
	expectStatus(t, rec, http.StatusCreated)
	var created handlers.BookingResponse
	decodeBody(t, rec, &created)
	return created.Booking
}

func TestBookingFlowOverHTTP(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, call{method: http.MethodGet, path: "/availability?date=2026-03-03&serviceId=1"})
	expectStatus(t, rec, http.StatusOK)

	b := h.book(t, "2026-03-03", "10:00")
	if b.Status != models.BookingStatusPending || b.Verified {
		t.Fatalf("unexpected booking %+v", b)
	}
	if last, ok := h.env.Outbox.Last(storetest.KindVerification); !ok || last.Code != "123456" {
		t.Fatalf("verification email not sent: %+v", last)
	}

	rec = h.do(t, call{method: http.MethodPost, path: "/bookings/" + b.ID + "/verify", body: map[string]string{"code": "654321"}})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = h.do(t, call{method: http.MethodPost, path: "/bookings/" + b.ID + "/verify", body: map[string]string{"code": "123456"}})
	expectStatus(t, rec, http.StatusOK)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/bookings/" + b.ID + "/confirm"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/bookings/" + b.ID + "/confirm", key: true})
	expectStatus(t, rec, http.StatusOK)
	var out booking.Outcome
	decodeBody(t, rec, &out)
	if out.Booking.Status != models.BookingStatusConfirmed || out.Email != booking.EmailSent {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Booking.HandledBy != middleware.APIKeyIdentity.Username {
		t.Fatalf("expected handledBy to name the api key, got %q", out.Booking.HandledBy)
	}

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/bookings/" + b.ID + "/confirm", key: true})
	expectStatus(t, rec, http.StatusConflict)

	rec = h.do(t, call{method: http.MethodGet, path: "/admin/bookings?date=2026-03-03&status=confirmed", key: true})
	expectStatus(t, rec, http.StatusOK)
	var list handlers.ListResponse[models.Booking]
	decodeBody(t, rec, &list)
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].ID != b.ID {
		t.Fatalf("unexpected confirmed list %+v", list)
	}
}

func TestClaimConflictsAndExpiredSession(t *testing.T) {
	h := newHarness(t)
	claim := map[string]interface{}{"date": "2026-03-03", "time": "11:00", "serviceId": storetest.Haircut.ID}

	expectStatus(t, h.do(t, call{method: http.MethodPost, path: "/reservations/claim", body: claim}), http.StatusOK)
	expectStatus(t, h.do(t, call{method: http.MethodPost, path: "/reservations/claim", body: claim}), http.StatusConflict)

	rec := h.do(t, call{method: http.MethodPost, path: "/reservations/claim", body: map[string]interface{}{
		"date": "2026-03-08", "time": "11:00", "serviceId": storetest.Haircut.ID,
	}})
	expectStatus(t, rec, http.StatusConflict)
	var conflict struct {
		Reason string `json:"reason"`
	}
	decodeBody(t, rec, &conflict)
	if conflict.Reason != "closed" {
		t.Fatalf("expected closed reason, got %q", conflict.Reason)
	}

	rec = h.do(t, call{method: http.MethodPost, path: "/reservations", body: map[string]interface{}{
		"sessionToken": "2f1c5a3e-8f0b-4b6a-9d3c-1e2f3a4b5c6d",
		"name":         "Ana",
		"phone":        "0712345678",
		"email":        "ana@example.com",
	}})
	expectStatus(t, rec, http.StatusGone)

	rec = h.do(t, call{method: http.MethodPost, path: "/reservations/claim", body: map[string]interface{}{
		"date": "03/03/2026", "time": "11:00", "serviceId": 1,
	}})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestBlockingDateWithBookingsReportsConflicts(t *testing.T) {
	h := newHarness(t)
	b := h.book(t, "2026-03-04", "12:00")

	rec := h.do(t, call{method: http.MethodPost, path: "/admin/blocked-dates", key: true, body: map[string]interface{}{
		"date": "2026-03-04", "fullDay": true,
	}})
	expectStatus(t, rec, http.StatusConflict)
	var conflict struct {
		Bookings []models.Booking `json:"bookings"`
	}
	decodeBody(t, rec, &conflict)
	if len(conflict.Bookings) != 1 || conflict.Bookings[0].ID != b.ID {
		t.Fatalf("expected the booking to be reported, got %+v", conflict.Bookings)
	}

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/bookings/" + b.ID + "/decline", key: true, body: map[string]string{"reason": "holiday"}})
	expectStatus(t, rec, http.StatusOK)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/blocked-dates", key: true, body: map[string]interface{}{
		"date": "2026-03-04", "fullDay": true,
	}})
	expectStatus(t, rec, http.StatusCreated)

	rec = h.do(t, call{method: http.MethodGet, path: "/availability?date=2026-03-04&serviceId=1"})
	expectStatus(t, rec, http.StatusOK)
	var avail struct {
		Slots  []string `json:"slots"`
		Reason string   `json:"reason"`
	}
	decodeBody(t, rec, &avail)
	if len(avail.Slots) != 0 || avail.Reason != "blocked" {
		t.Fatalf("expected a blocked day, got %+v", avail)
	}
}

func TestStaffCookieLoginAndRoles(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, call{method: http.MethodPost, path: "/admin/login", body: map[string]string{"username": "owner", "password": "wrong"}})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/login", body: map[string]string{"username": "owner", "password": "owner-pass"}})
	expectStatus(t, rec, http.StatusOK)
	ownerCookies := rec.Result().Cookies()

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/users", cookies: ownerCookies, body: map[string]string{
		"username": "mihai", "password": "chair-number-2",
	}})
	expectStatus(t, rec, http.StatusCreated)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/login", body: map[string]string{"username": "mihai", "password": "chair-number-2"}})
	expectStatus(t, rec, http.StatusOK)
	staffCookies := rec.Result().Cookies()

	expectStatus(t, h.do(t, call{method: http.MethodGet, path: "/admin/bookings/pending", cookies: staffCookies}), http.StatusOK)
	expectStatus(t, h.do(t, call{method: http.MethodPost, path: "/admin/services", cookies: staffCookies, body: map[string]interface{}{
		"name": "Styling", "duration": 45, "price": 60,
	}}), http.StatusForbidden)
	expectStatus(t, h.do(t, call{method: http.MethodPost, path: "/admin/services", cookies: ownerCookies, body: map[string]interface{}{
		"name": "Styling", "duration": 45, "price": 60,
	}}), http.StatusCreated)

	var refresh []*http.Cookie
	for _, c := range staffCookies {
		if c.Name != middleware.AccessCookie {
			refresh = append(refresh, c)
		}
	}
	expectStatus(t, h.do(t, call{method: http.MethodGet, path: "/admin/me", cookies: refresh}), http.StatusUnauthorized)
	expectStatus(t, h.do(t, call{method: http.MethodPost, path: "/admin/refresh", cookies: refresh}), http.StatusOK)
}

func TestCleanupEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, call{method: http.MethodGet, path: "/admin/cleanup", key: true})
	expectStatus(t, rec, http.StatusOK)
	var last handlers.CleanupResponse
	decodeBody(t, rec, &last)
	if last.Report != nil {
		t.Fatalf("expected no report before the first run")
	}

	b := h.book(t, "2026-03-03", "09:00")
	h.env.Clock.Advance(time.Hour)

	rec = h.do(t, call{method: http.MethodPost, path: "/admin/cleanup", key: true})
	expectStatus(t, rec, http.StatusOK)
	var ran handlers.CleanupResponse
	decodeBody(t, rec, &ran)
	if ran.Report == nil || ran.Report.Total() == 0 {
		t.Fatalf("expected the abandoned booking to be swept, got %+v", ran.Report)
	}
	expectStatus(t, h.do(t, call{method: http.MethodGet, path: "/admin/bookings/" + b.ID, key: true}), http.StatusNotFound)
}
