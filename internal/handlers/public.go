package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"barber-booking/internal/availability"
	"barber-booking/internal/booking"
	"barber-booking/internal/models"
	"barber-booking/internal/transport"

	"github.com/go-chi/chi/v5"
)

type VerifyRequest struct {
	Code string `json:"code" validate:"required,code6"`
}

type BookingResponse struct {
	Booking models.Booking `json:"booking"`
}

type SuspendResponse struct {
	Status  string          `json:"status"`
	Booking *models.Booking `json:"booking,omitempty"`
}

func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	items, err := s.Catalog.List(ctx)
	if err != nil {
		writeServiceError(w, log, "services", err)
		return
	}
	log.Info("services: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": items})
}

func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		transport.WriteError(w, http.StatusBadRequest, "invalid service id", nil)
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	svc, err := s.Catalog.Get(ctx, id)
	if err != nil {
		writeServiceError(w, log, "service get", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, svc)
}

func (s *Server) GetAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	serviceID, err := strconv.Atoi(r.URL.Query().Get("serviceId"))
	if date == "" || err != nil || serviceID <= 0 {
		log.Warn("availability: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "date and serviceId are required", nil)
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	result, err := s.Availability.Compute(ctx, availability.Query{Date: date, ServiceID: serviceID})
	if err != nil {
		writeServiceError(w, log, "availability", err)
		return
	}
	log.Info("availability: ok",
		slog.String("date", date), slog.Int("service_id", serviceID), slog.Int("slots", len(result.Slots)))
	transport.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) ClaimSlot(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req booking.ClaimRequest
	if !s.decode(w, r, log, "reservation claim", &req) {
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	res, err := s.Bookings.Claim(ctx, req)
	if err != nil {
		writeServiceError(w, log, "reservation claim", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req booking.CreateRequest
	if !s.decode(w, r, log, "reservation create", &req) {
		return
	}

	ctx, cancel := s.withTimeout(r, mailTimeout)
	defer cancel()

	b, err := s.Bookings.Create(ctx, req)
	if err != nil {
		writeServiceError(w, log, "reservation create", err)
		return
	}
	log.Info("reservation create: ok", slog.String("booking_id", b.ID))
	transport.WriteJSON(w, http.StatusCreated, BookingResponse{Booking: b})
}

func (s *Server) SuspendReservation(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req booking.SuspendRequest
	if !s.decode(w, r, log, "reservation suspend", &req) {
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	b, err := s.Bookings.Suspend(ctx, req)
	if err != nil {
		writeServiceError(w, log, "reservation suspend", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, SuspendResponse{Status: "ok", Booking: b})
}

func (s *Server) VerifyBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req VerifyRequest
	if !s.decode(w, r, log, "booking verify", &req) {
		return
	}

	ctx, cancel := s.withTimeout(r, requestTimeout)
	defer cancel()

	b, err := s.Bookings.Verify(ctx, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeServiceError(w, log, "booking verify", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

func (s *Server) ResendCode(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := s.withTimeout(r, mailTimeout)
	defer cancel()

	res, err := s.Bookings.Resend(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, log, "booking resend", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}
