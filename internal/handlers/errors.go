package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"barber-booking/internal/auth"
	"barber-booking/internal/blocking"
	"barber-booking/internal/booking"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/httpx"
	"barber-booking/internal/models"
	"barber-booking/internal/quota"
	"barber-booking/internal/schedule"
	"barber-booking/internal/staff"
	"barber-booking/internal/sweeper"
	"barber-booking/internal/transport"
)

type conflictResponse struct {
	Error    string           `json:"error"`
	Reason   string           `json:"reason,omitempty"`
	Bookings []models.Booking `json:"bookings,omitempty"`
}

type quotaResponse struct {
	Error      string         `json:"error"`
	Reason     string         `json:"reason"`
	RetryAfter int            `json:"retryAfter"`
	Quota      quota.Decision `json:"quota"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, area string, v interface{}) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		if errors.Is(err, httpx.ErrBodyTooLarge) {
			log.Warn(area + ": body too large")
			transport.WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), nil)
			return false
		}
		log.Warn(area+": invalid json", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return false
	}
	if err := s.Val.Struct(v); err != nil {
		log.Warn(area + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return false
	}
	return true
}

// writeServiceError maps domain errors to responses. Anything unrecognised
// is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	var (
		unavailable *booking.UnavailableError
		transition  *booking.TransitionError
		quotaErr    *booking.QuotaError
		blockErr    *blocking.ConflictError
	)

	switch {
	case errors.As(err, &quotaErr):
		retry := int(quotaErr.Decision.RetryAfter.Seconds())
		if retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retry))
		}
		log.Warn(area+": quota exceeded", slog.String("reason", quotaErr.Decision.Reason))
		transport.WriteJSON(w, http.StatusTooManyRequests, quotaResponse{
			Error:      "email limit reached, try again later",
			Reason:     quotaErr.Decision.Reason,
			RetryAfter: retry,
			Quota:      quotaErr.Decision,
		})
	case errors.As(err, &unavailable):
		log.Info(area+": slot unavailable", slog.String("reason", string(unavailable.Reason)))
		transport.WriteJSON(w, http.StatusConflict, conflictResponse{Error: unavailable.Message, Reason: string(unavailable.Reason)})
	case errors.As(err, &transition):
		log.Warn(area+": illegal transition", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &blockErr):
		log.Warn(area+": conflicts with bookings", slog.Int("count", len(blockErr.Bookings)))
		transport.WriteJSON(w, http.StatusConflict, conflictResponse{Error: err.Error(), Bookings: blockErr.Bookings})

	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrStateChanged),
		errors.Is(err, booking.ErrAlreadyVerified),
		errors.Is(err, sweeper.ErrAlreadyRunning),
		errors.Is(err, catalog.ErrDuplicateName),
		errors.Is(err, staff.ErrDuplicate):
		log.Info(area+": conflict", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, booking.ErrSessionExpired):
		log.Info(area + ": session expired")
		transport.WriteError(w, http.StatusGone, err.Error(), nil)
	case errors.Is(err, booking.ErrClientBlocked):
		log.Warn(area + ": blocked client")
		transport.WriteError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, booking.ErrEmailDelivery):
		log.Error(area+": email delivery failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadGateway, booking.ErrEmailDelivery.Error(), nil)
	case errors.Is(err, staff.ErrInvalidCredentials):
		log.Warn(area + ": invalid credentials")
		transport.WriteError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, staff.ErrInvalidSetupKey):
		log.Warn(area + ": invalid setup key")
		transport.WriteError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, staff.ErrNotConfigured):
		transport.WriteError(w, http.StatusServiceUnavailable, err.Error(), nil)

	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, blocking.ErrNotFound),
		errors.Is(err, clients.ErrNotFound),
		errors.Is(err, staff.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, booking.ErrInvalidCode),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, catalog.ErrInvalidDuration),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, blocking.ErrPastDate),
		errors.Is(err, blocking.ErrNoHours),
		errors.Is(err, blocking.ErrInvalidHour):
		log.Warn(area+": rejected", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, context.DeadlineExceeded):
		log.Error(area+": timeout", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusGatewayTimeout, "request timed out", nil)
	default:
		log.Error(area+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}
