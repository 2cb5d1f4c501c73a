package booking

import (
	"errors"
	"fmt"

	"barber-booking/internal/availability"
	"barber-booking/internal/quota"
)

var (
	ErrNotFound        = errors.New("booking not found")
	ErrStateChanged    = errors.New("booking was changed by someone else")
	ErrSessionExpired  = errors.New("reservation expired, pick a slot again")
	ErrSlotTaken       = errors.New("slot is no longer available, pick another one")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrAlreadyVerified = errors.New("booking already verified")
	ErrClientBlocked   = errors.New("online booking is disabled for this client")
	ErrEmailDelivery   = errors.New("verification email could not be sent")
)

// UnavailableError reports why a whole date cannot take the requested slot.
type UnavailableError struct {
	Reason  availability.Reason
	Message string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable (%s): %s", e.Reason, e.Message)
}

// QuotaError is returned when an email the operation depends on is not
// allowed right now. Nothing was changed.
type QuotaError struct {
	Decision quota.Decision
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("email quota exceeded: %s", e.Decision.Reason)
}

// EmailStatus is the outcome of a notification that does not affect the
// transition it follows.
type EmailStatus string

const (
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
	EmailLimited EmailStatus = "limited"
	EmailSkipped EmailStatus = "skipped"
)
