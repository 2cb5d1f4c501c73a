package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/availability"
	"barber-booking/internal/blocking"
	"barber-booking/internal/booking"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/config"
	"barber-booking/internal/middleware"
	"barber-booking/internal/staff"
	"barber-booking/internal/sweeper"
	"barber-booking/internal/validation"
)

const (
	requestTimeout = 5 * time.Second
	// email sending happens inline for these, so they get longer
	mailTimeout = 15 * time.Second
)

type Server struct {
	Cfg          *config.Config
	Val          *validation.Validator
	Log          *slog.Logger
	Auth         *auth.Manager
	Catalog      *catalog.Service
	Availability *availability.Calculator
	Bookings     *booking.Lifecycle
	Blocks       *blocking.Registry
	Clients      *clients.Registry
	Sweeper      *sweeper.Sweeper
	Staff        *staff.Service

	BookingLimiter *middleware.RateLimiter
	VerifyLimiter  *middleware.RateLimiter
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

func (s *Server) withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// staffID names the authenticated staff member for audit fields.
func staffID(r *http.Request) string {
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		if id.Username != "" {
			return id.Username
		}
		return id.ID
	}
	return ""
}
