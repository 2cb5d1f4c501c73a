package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"barber-booking/internal/blocking"
	"barber-booking/internal/booking"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/httpx"
	"barber-booking/internal/models"
	"barber-booking/internal/sweeper"
	"barber-booking/internal/transport"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	cleanupTimeout  = 2 * time.Minute
)

type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

type UnblockResponse struct {
	BlockedDate models.BlockedDate `json:"blockedDate"`
	Deleted     bool               `json:"deleted"`
}

type CleanupResponse struct {
	Report *sweeper.Report `json:"report"`
}

var bookingStatuses = map[string]bool{
	models.BookingStatusPending:   true,
	models.BookingStatusConfirmed: true,
	models.BookingStatusDeclined:  true,
	models.BookingStatusCancelled: true,
	models.BookingStatusCompleted: true,
}

func page(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), defaultPageSize, maxPageSize)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return 0, 0, false
	}
	return limit, offset, true
}

func listOf[T any](items []T, total, limit, offset int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: total, Limit: limit, Offset: offset}
}

func (s *Server) StaffListPending(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	items, total, err := s.Bookings.ListPending(ctx, limit, offset)
	if err != nil {
		writeServiceError(w, log, "staff pending", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, listOf(items, total, limit, offset))
}

func (s *Server) StaffListBookings(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := booking.ListFilter{
		Date:   strings.TrimSpace(q.Get("date")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	if filter.Status != "" && !bookingStatuses[filter.Status] {
		transport.WriteError(w, http.StatusBadRequest, "invalid status", nil)
		return
	}
	if raw := q.Get("verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid verified flag", nil)
			return
		}
		filter.Verified = &v
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	var (
		items []models.Booking
		total int64
		err   error
	)
	if filter.Status == models.BookingStatusConfirmed && filter.Date != "" && filter.Verified == nil {
		items, total, err = s.Bookings.ListConfirmed(ctx, filter.Date, limit, offset)
	} else {
		items, total, err = s.Bookings.List(ctx, filter, limit, offset)
	}
	if err != nil {
		writeServiceError(w, log, "staff bookings", err)
		return
	}
	log.Info("staff bookings: ok", slog.Int("count", len(items)), slog.Int64("total", total))
	transport.WriteJSON(w, http.StatusOK, listOf(items, total, limit, offset))
}

func (s *Server) StaffGetBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	b, err := s.Bookings.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, log, "staff booking", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

func (s *Server) StaffConfirm(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, mailTimeout)
	defer cancel()

	out, err := s.Bookings.Confirm(ctx, chi.URLParam(r, "id"), staffID(r))
	if err != nil {
		writeServiceError(w, log, "staff confirm", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, out)
}

// reasonBody decodes an optional {"reason": ...} body. An empty body is
// allowed.
func (s *Server) reasonBody(w http.ResponseWriter, r *http.Request, log *slog.Logger, area string) (string, bool) {
	var req ReasonRequest
	if r.ContentLength == 0 {
		return "", true
	}
	if !s.decode(w, r, log, area, &req) {
		return "", false
	}
	return req.Reason, true
}

func (s *Server) StaffDecline(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	reason, ok := s.reasonBody(w, r, log, "staff decline")
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r, mailTimeout)
	defer cancel()

	out, err := s.Bookings.Decline(ctx, chi.URLParam(r, "id"), staffID(r), reason)
	if err != nil {
		writeServiceError(w, log, "staff decline", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) StaffComplete(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	b, err := s.Bookings.Complete(ctx, chi.URLParam(r, "id"), staffID(r))
	if err != nil {
		writeServiceError(w, log, "staff complete", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

func (s *Server) StaffBlockUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	reason, ok := s.reasonBody(w, r, log, "staff block-user")
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r, mailTimeout)
	defer cancel()

	out, err := s.Bookings.BlockUser(ctx, chi.URLParam(r, "id"), staffID(r), reason)
	if err != nil {
		writeServiceError(w, log, "staff block-user", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) StaffListBlockedDates(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	includePast, _ := strconv.ParseBool(r.URL.Query().Get("includePast"))

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	items, err := s.Blocks.List(ctx, includePast)
	if err != nil {
		writeServiceError(w, log, "staff blocked-dates", err)
		return
	}
	if items == nil {
		items = []models.BlockedDate{}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"blockedDates": items})
}

func (s *Server) StaffBlockDate(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req blocking.BlockRequest
	if !s.decode(w, r, log, "staff block-date", &req) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	bd, err := s.Blocks.Block(ctx, req, staffID(r))
	if err != nil {
		writeServiceError(w, log, "staff block-date", err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, bd)
}

func (s *Server) StaffUnblockDate(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req blocking.UnblockRequest
	if !s.decode(w, r, log, "staff unblock-date", &req) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	bd, deleted, err := s.Blocks.Unblock(ctx, req, staffID(r))
	if err != nil {
		writeServiceError(w, log, "staff unblock-date", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, UnblockResponse{BlockedDate: bd, Deleted: deleted})
}

func (s *Server) StaffDeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	if err := s.Blocks.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, log, "staff delete blocked-date", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) StaffListClients(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	blockedOnly, _ := strconv.ParseBool(r.URL.Query().Get("blocked"))

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	items, total, err := s.Clients.List(ctx, clients.ListFilter{BlockedOnly: blockedOnly}, limit, offset)
	if err != nil {
		writeServiceError(w, log, "staff clients", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, listOf(items, total, limit, offset))
}

func (s *Server) StaffUnblockClient(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	c, err := s.Clients.Unblock(ctx, chi.URLParam(r, "id"), staffID(r))
	if err != nil {
		writeServiceError(w, log, "staff unblock-client", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) StaffCreateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var in catalog.ServiceInput
	if !s.decode(w, r, log, "staff create service", &in) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	svc, err := s.Catalog.Create(ctx, in)
	if err != nil {
		writeServiceError(w, log, "staff create service", err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, svc)
}

func (s *Server) StaffUpdateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		transport.WriteError(w, http.StatusBadRequest, "invalid service id", nil)
		return
	}
	var in catalog.ServiceInput
	if !s.decode(w, r, log, "staff update service", &in) {
		return
	}
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	svc, err := s.Catalog.Update(ctx, id, in)
	if err != nil {
		writeServiceError(w, log, "staff update service", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, svc)
}

// StaffRunCleanup runs the sweeper now. The run is detached from the request
// so a client disconnect does not abort a pass halfway.
func (s *Server) StaffRunCleanup(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), cleanupTimeout)
	defer cancel()

	report, err := s.Sweeper.Run(ctx)
	if err != nil {
		writeServiceError(w, log, "staff cleanup", err)
		return
	}
	log.Info("staff cleanup: ok", slog.Int64("processed", report.Total()), slog.String("staff_id", staffID(r)))
	transport.WriteJSON(w, http.StatusOK, CleanupResponse{Report: &report})
}

func (s *Server) StaffLastCleanup(w http.ResponseWriter, r *http.Request) {
	report, ok := s.Sweeper.LastReport()
	if !ok {
		transport.WriteJSON(w, http.StatusOK, CleanupResponse{})
		return
	}
	transport.WriteJSON(w, http.StatusOK, CleanupResponse{Report: &report})
}
