package notifications

import (
	"context"
	"log/slog"

	"barber-booking/internal/models"

	"github.com/google/uuid"
)

// LogMailer writes emails to the log instead of sending them. It stands in
// for Brevo in development so the verification flow stays usable.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With(slog.String("component", "mailer"))}
}

func (m *LogMailer) deliver(kind, to string, attrs ...any) string {
	id := "log-" + uuid.NewString()
	args := append([]any{slog.String("kind", kind), slog.String("to", to), slog.String("message_id", id)}, attrs...)
	m.log.Info("mailer log: email not sent", args...)
	return id
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, to models.ClientSnapshot, code, bookingRef string) (string, error) {
	return m.deliver("verification", to.Email, slog.String("code", code), slog.String("booking_id", bookingRef)), nil
}

func (m *LogMailer) SendConfirmation(ctx context.Context, booking models.Booking) (string, error) {
	return m.deliver("confirmation", booking.Client.Email, slog.String("booking_id", booking.ID)), nil
}

func (m *LogMailer) SendRejection(ctx context.Context, booking models.Booking, reason string) (string, error) {
	return m.deliver("rejection", booking.Client.Email, slog.String("booking_id", booking.ID), slog.String("reason", reason)), nil
}

func (m *LogMailer) SendBlockedNotice(ctx context.Context, to models.ClientSnapshot, reason string) (string, error) {
	return m.deliver("blocked", to.Email, slog.String("reason", reason)), nil
}
