package handlers

import (
	"net/http"

	"barber-booking/internal/middleware"
	"barber-booking/internal/models"
	"barber-booking/internal/transport"

	"github.com/go-chi/chi/v5"
)

func limited(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Routes registers the public and staff surfaces on api.
func (s *Server) Routes(api chi.Router) {
	api.Get("/health", s.Health)
	api.Get("/services", s.ListServices)
	api.Get("/services/{id}", s.GetService)
	api.Get("/availability", s.GetAvailability)

	api.Group(func(bookings chi.Router) {
		bookings.Use(limited(s.BookingLimiter))
		bookings.Post("/reservations/claim", s.ClaimSlot)
		bookings.Post("/reservations", s.CreateBooking)
	})
	api.Post("/reservations/suspend", s.SuspendReservation)
	api.Group(func(verify chi.Router) {
		verify.Use(limited(s.VerifyLimiter))
		verify.Post("/bookings/{id}/verify", s.VerifyBooking)
		verify.Post("/bookings/{id}/resend", s.ResendCode)
	})

	api.Route("/admin", func(admin chi.Router) {
		admin.With(limited(s.VerifyLimiter)).Post("/login", s.Login)
		admin.Post("/refresh", s.Refresh)
		admin.Post("/logout", s.Logout)
		admin.With(limited(s.VerifyLimiter)).Post("/register", s.Register)

		admin.Group(func(protected chi.Router) {
			protected.Use(middleware.StaffAuth(s.Cfg.AdminAPIKey, s.Auth))
			protected.Get("/me", s.Me)

			protected.Get("/bookings/pending", s.StaffListPending)
			protected.Get("/bookings", s.StaffListBookings)
			protected.Get("/bookings/{id}", s.StaffGetBooking)
			protected.Post("/bookings/{id}/confirm", s.StaffConfirm)
			protected.Post("/bookings/{id}/decline", s.StaffDecline)
			protected.Post("/bookings/{id}/complete", s.StaffComplete)
			protected.Post("/bookings/{id}/block-user", s.StaffBlockUser)

			protected.Get("/blocked-dates", s.StaffListBlockedDates)
			protected.Post("/blocked-dates", s.StaffBlockDate)
			protected.Post("/blocked-dates/unblock", s.StaffUnblockDate)
			protected.Delete("/blocked-dates/{id}", s.StaffDeleteBlockedDate)

			protected.Get("/clients", s.StaffListClients)
			protected.Post("/clients/{id}/unblock", s.StaffUnblockClient)

			protected.Patch("/users/{id}/password", s.UpdatePassword)

			protected.Group(func(admins chi.Router) {
				admins.Use(middleware.RequireRole(models.RoleAdmin))
				admins.Post("/services", s.StaffCreateService)
				admins.Put("/services/{id}", s.StaffUpdateService)
				admins.Post("/users", s.CreateUser)
				admins.Post("/cleanup", s.StaffRunCleanup)
				admins.Get("/cleanup", s.StaffLastCleanup)
			})
		})
	})
}
