package booking

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"barber-booking/internal/availability"
	"barber-booking/internal/clients"
	"barber-booking/internal/models"
	"barber-booking/internal/quota"
	"barber-booking/internal/schedule"
	"barber-booking/internal/slotlock"
	"barber-booking/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	systemActor  = "system"
	emailTimeout = 8 * time.Second
)

type ServiceCatalog interface {
	Get(ctx context.Context, id int) (models.Service, error)
}

type SlotChecker interface {
	Compute(ctx context.Context, q availability.Query) (availability.Result, error)
}

type LockManager interface {
	Acquire(ctx context.Context, key slotlock.Key, holder string) (slotlock.Handle, error)
	Release(ctx context.Context, h slotlock.Handle)
}

type ClientRegistry interface {
	CheckAllowed(ctx context.Context, email, phone string) error
	Register(ctx context.Context, snapshot models.ClientSnapshot) (models.Client, error)
	DecrementTotal(ctx context.Context, clientID string) error
	RecordCompletion(ctx context.Context, clientID string) error
	RecordEmail(ctx context.Context, email string) error
	Block(ctx context.Context, clientID, email, reason, staffID string) (models.Client, error)
}

type QuotaGuard interface {
	Check(ctx context.Context, email string, booking *models.Booking, kind quota.Kind) (quota.Decision, error)
	Record(ctx context.Context, email string) error
}

type Mailer interface {
	SendVerificationCode(ctx context.Context, to models.ClientSnapshot, code, bookingRef string) (string, error)
	SendConfirmation(ctx context.Context, booking models.Booking) (string, error)
	SendRejection(ctx context.Context, booking models.Booking, reason string) (string, error)
	SendBlockedNotice(ctx context.Context, to models.ClientSnapshot, reason string) (string, error)
}

type Deps struct {
	Repo     Repository
	Catalog  ServiceCatalog
	Slots    SlotChecker
	Locks    LockManager
	Sessions *Sessions
	Clients  ClientRegistry
	Quota    QuotaGuard
	Mailer   Mailer
}

type ClaimRequest struct {
	Date         string `json:"date" validate:"required,date"`
	Time         string `json:"time" validate:"required,clock"`
	ServiceID    int    `json:"serviceId" validate:"required,gt=0"`
	SessionToken string `json:"sessionToken" validate:"omitempty,uuid4"`
}

type ClaimResult struct {
	SessionToken string    `json:"sessionToken"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	ServiceID    int       `json:"serviceId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type CreateRequest struct {
	SessionToken string `json:"sessionToken" validate:"required,uuid4"`
	Name         string `json:"name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,phone"`
	Email        string `json:"email" validate:"required,email,max=254"`
	CountryCode  string `json:"countryCode" validate:"omitempty,countrycode"`
}

type SuspendRequest struct {
	SessionToken string `json:"sessionToken" validate:"required,uuid4"`
	BookingID    string `json:"bookingId"`
}

type Outcome struct {
	Booking models.Booking `json:"booking"`
	Email   EmailStatus    `json:"email"`
}

type BlockOutcome struct {
	Booking models.Booking `json:"booking"`
	Client  models.Client  `json:"client"`
	Email   EmailStatus    `json:"email"`
}

type ResendResult struct {
	Booking models.Booking `json:"booking"`
	Quota   quota.Decision `json:"quota"`
}

// Lifecycle runs every booking transition. Each transition is checked
// against the state machine first and written with a conditional update, so
// a concurrent change by staff or the sweeper surfaces as ErrStateChanged
// instead of being overwritten.
type Lifecycle struct {
	repo     Repository
	catalog  ServiceCatalog
	slots    SlotChecker
	locks    LockManager
	sessions *Sessions
	clients  ClientRegistry
	quota    QuotaGuard
	mailer   Mailer
	location *time.Location
	now      func() time.Time
	codes    func() (string, error)
	log      *slog.Logger
}

func NewLifecycle(deps Deps, location *time.Location, log *slog.Logger) *Lifecycle {
	return &Lifecycle{
		repo:     deps.Repo,
		catalog:  deps.Catalog,
		slots:    deps.Slots,
		locks:    deps.Locks,
		sessions: deps.Sessions,
		clients:  deps.Clients,
		quota:    deps.Quota,
		mailer:   deps.Mailer,
		location: location,
		now:      time.Now,
		codes:    GenerateCode,
		log:      log.With(slog.String("component", "booking")),
	}
}

// WithClock replaces the time source.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// WithCodeGenerator replaces the verification code source.
func (l *Lifecycle) WithCodeGenerator(gen func() (string, error)) *Lifecycle {
	l.codes = gen
	return l
}

func (l *Lifecycle) stamp() time.Time {
	return l.now().In(l.location)
}

// GenerateCode returns a uniformly random 6 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Claim locks a slot for the caller's reservation session. A conflicting
// claim fails immediately with ErrSlotTaken.
func (l *Lifecycle) Claim(ctx context.Context, req ClaimRequest) (ClaimResult, error) {
	if _, err := schedule.ParseDateTime(req.Date, req.Time, l.location); err != nil {
		return ClaimResult{}, err
	}

	var previous *Session
	token := ""
	if req.SessionToken != "" {
		if sess, err := l.sessions.Load(ctx, req.SessionToken); err == nil && sess.BookingID == "" {
			previous = &sess
			token = sess.Token
		}
	}
	if token == "" {
		token = uuid.NewString()
	}

	query := availability.Query{Date: req.Date, ServiceID: req.ServiceID, IgnoreHolder: token}
	if err := l.requireSlot(ctx, query, req.Time); err != nil {
		return ClaimResult{}, err
	}

	key := slotlock.Key{Date: req.Date, Time: req.Time, ServiceID: req.ServiceID}
	handle, err := l.locks.Acquire(ctx, key, token)
	if errors.Is(err, slotlock.ErrConflict) {
		return ClaimResult{}, ErrSlotTaken
	}
	if err != nil {
		return ClaimResult{}, err
	}

	// Locks for different services at the same time use different keys, so
	// recheck after acquiring to catch an overlapping claim that raced ours.
	if err := l.requireSlot(ctx, query, req.Time); err != nil {
		l.locks.Release(ctx, handle)
		return ClaimResult{}, err
	}

	if previous != nil && previous.lockHandle().Key != key {
		l.locks.Release(ctx, previous.lockHandle())
	}

	now := l.now()
	sess := Session{
		Token:         token,
		Date:          req.Date,
		Time:          req.Time,
		ServiceID:     req.ServiceID,
		LockExpiresAt: handle.ExpiresAt,
		CreatedAt:     now,
		ExpiresAt:     now.Add(l.sessions.TTL()),
	}
	if err := l.sessions.Save(ctx, sess); err != nil {
		l.locks.Release(ctx, handle)
		return ClaimResult{}, err
	}

	l.log.Info("booking claim: ok",
		slog.String("date", req.Date), slog.String("time", req.Time), slog.Int("service_id", req.ServiceID))
	return ClaimResult{
		SessionToken: token,
		Date:         req.Date,
		Time:         req.Time,
		ServiceID:    req.ServiceID,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

func (l *Lifecycle) requireSlot(ctx context.Context, q availability.Query, timeStr string) error {
	result, err := l.slots.Compute(ctx, q)
	if err != nil {
		return err
	}
	if result.Contains(timeStr) {
		return nil
	}
	if result.Reason != availability.ReasonNone && result.Reason != availability.ReasonFullyBooked {
		return &UnavailableError{Reason: result.Reason, Message: result.Message}
	}
	return ErrSlotTaken
}

// Create turns a claimed slot into a pending, unverified booking and emails
// the verification code. If the email cannot be sent the booking is removed
// again, since the client would have no way to verify it.
func (l *Lifecycle) Create(ctx context.Context, req CreateRequest) (models.Booking, error) {
	sess, err := l.sessions.Load(ctx, req.SessionToken)
	if err != nil {
		return models.Booking{}, err
	}
	if sess.BookingID != "" {
		return l.repo.GetByID(ctx, sess.BookingID)
	}

	snapshot := models.ClientSnapshot{
		Name:        strings.TrimSpace(req.Name),
		Phone:       utils.NormalizePhone(req.Phone),
		Email:       utils.NormalizeEmail(req.Email),
		CountryCode: strings.ToUpper(strings.TrimSpace(req.CountryCode)),
	}

	if err := l.clients.CheckAllowed(ctx, snapshot.Email, snapshot.Phone); err != nil {
		if errors.Is(err, clients.ErrBlocked) {
			return models.Booking{}, ErrClientBlocked
		}
		return models.Booking{}, err
	}

	svc, err := l.catalog.Get(ctx, sess.ServiceID)
	if err != nil {
		return models.Booking{}, err
	}

	query := availability.Query{Date: sess.Date, ServiceID: sess.ServiceID, IgnoreHolder: sess.Token}
	if err := l.requireSlot(ctx, query, sess.Time); err != nil {
		return models.Booking{}, err
	}

	decision, err := l.quota.Check(ctx, snapshot.Email, nil, quota.KindVerification)
	if err != nil {
		return models.Booking{}, err
	}
	if !decision.Allowed {
		return models.Booking{}, &QuotaError{Decision: decision}
	}

	code, err := l.codes()
	if err != nil {
		return models.Booking{}, err
	}

	client, err := l.clients.Register(ctx, snapshot)
	if err != nil {
		return models.Booking{}, err
	}

	now := l.stamp()
	b := models.Booking{
		ID:               primitive.NewObjectID().Hex(),
		ClientID:         client.ID,
		Client:           snapshot,
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		Duration:         svc.Duration,
		Price:            svc.Price,
		Date:             sess.Date,
		Time:             sess.Time,
		Status:           models.BookingStatusPending,
		Verified:         false,
		VerificationCode: code,
		EmailSendCount:   1,
		LastEmailSentAt:  &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := l.repo.Insert(ctx, b); err != nil {
		l.undoRegister(ctx, client.ID)
		return models.Booking{}, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, emailTimeout)
	_, sendErr := l.mailer.SendVerificationCode(sendCtx, snapshot, code, b.ID)
	cancel()
	if sendErr != nil {
		l.log.Warn("booking create: verification email failed, rolling back",
			slog.String("booking_id", b.ID), slog.String("error", sendErr.Error()))
		if err := l.repo.Delete(ctx, b.ID); err != nil {
			l.log.Error("booking create: rollback delete failed",
				slog.String("booking_id", b.ID), slog.String("error", err.Error()))
		}
		l.undoRegister(ctx, client.ID)
		return models.Booking{}, fmt.Errorf("%w: %v", ErrEmailDelivery, sendErr)
	}
	l.recordEmail(ctx, snapshot.Email)

	l.locks.Release(ctx, sess.lockHandle())
	sess.BookingID = b.ID
	if err := l.sessions.Save(ctx, sess); err != nil {
		l.log.Warn("booking create: session update failed",
			slog.String("booking_id", b.ID), slog.String("error", err.Error()))
	}

	l.log.Info("booking create: ok",
		slog.String("booking_id", b.ID),
		slog.String("date", b.Date),
		slog.String("time", b.Time),
		slog.Int("service_id", b.ServiceID),
	)
	return b, nil
}

func (l *Lifecycle) undoRegister(ctx context.Context, clientID string) {
	if err := l.clients.DecrementTotal(ctx, clientID); err != nil {
		l.log.Warn("booking create: client counter rollback failed",
			slog.String("client_id", clientID), slog.String("error", err.Error()))
	}
}

// Verify marks the booking verified when code matches the one sent.
func (l *Lifecycle) Verify(ctx context.Context, id, code string) (models.Booking, error) {
	b, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	state := StateOf(b)
	if state == StatePendingVerified {
		return models.Booking{}, ErrAlreadyVerified
	}
	if _, err := Next(state, EventVerify); err != nil {
		return models.Booking{}, err
	}

	code = strings.TrimSpace(code)
	if b.VerificationCode == "" || subtle.ConstantTimeCompare([]byte(b.VerificationCode), []byte(code)) != 1 {
		l.log.Warn("booking verify: code mismatch", slog.String("booking_id", id))
		return models.Booking{}, ErrInvalidCode
	}

	now := l.stamp()
	verified := true
	cleared := ""
	updated, err := l.repo.UpdateWhere(ctx, id, guardFor(sourcesOf(EventVerify)...), Patch{
		Verified:         &verified,
		VerificationCode: &cleared,
		VerifiedAt:       &now,
		UpdatedAt:        now,
	})
	if err != nil {
		return models.Booking{}, err
	}
	l.log.Info("booking verify: ok", slog.String("booking_id", id))
	return updated, nil
}

// Resend issues a new verification code. When the quota refuses the send
// nothing is changed and a QuotaError describes the refusal. A failed send
// leaves the previous code valid and the counters untouched.
func (l *Lifecycle) Resend(ctx context.Context, id string) (ResendResult, error) {
	b, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return ResendResult{}, err
	}
	if _, err := Next(StateOf(b), EventResend); err != nil {
		return ResendResult{}, err
	}

	decision, err := l.quota.Check(ctx, b.Client.Email, &b, quota.KindVerification)
	if err != nil {
		return ResendResult{}, err
	}
	if !decision.Allowed {
		l.log.Info("booking resend: quota refused",
			slog.String("booking_id", id), slog.String("reason", decision.Reason))
		return ResendResult{}, &QuotaError{Decision: decision}
	}

	code, err := l.codes()
	if err != nil {
		return ResendResult{}, err
	}

	// The stored code is replaced only once the new one has been delivered.
	sendCtx, cancel := context.WithTimeout(ctx, emailTimeout)
	_, sendErr := l.mailer.SendVerificationCode(sendCtx, b.Client, code, b.ID)
	cancel()
	if sendErr != nil {
		l.log.Warn("booking resend: email failed", slog.String("booking_id", id), slog.String("error", sendErr.Error()))
		return ResendResult{}, fmt.Errorf("%w: %v", ErrEmailDelivery, sendErr)
	}

	now := l.stamp()
	updated, err := l.repo.UpdateWhere(ctx, id, guardFor(sourcesOf(EventResend)...), Patch{
		VerificationCode: &code,
		EmailSentAt:      &now,
		UpdatedAt:        now,
	})
	if err != nil {
		l.log.Warn("booking resend: code not stored", slog.String("booking_id", id), slog.String("error", err.Error()))
		return ResendResult{}, err
	}
	l.recordEmail(ctx, updated.Client.Email)

	decision.RemainingToday = max(decision.RemainingToday-1, 0)
	decision.RemainingForBooking = max(decision.RemainingForBooking-1, 0)
	l.log.Info("booking resend: ok", slog.String("booking_id", id), slog.Int("send_count", updated.EmailSendCount))
	return ResendResult{Booking: updated, Quota: decision}, nil
}

// Confirm accepts a verified booking. The confirmation email is attempted
// after the transition commits and its result is only reported.
func (l *Lifecycle) Confirm(ctx context.Context, id, staffID string) (Outcome, error) {
	now := l.stamp()
	updated, err := l.apply(ctx, id, EventConfirm, Patch{ConfirmedAt: &now, HandledBy: staffID})
	if err != nil {
		return Outcome{}, err
	}
	email := l.notify(ctx, updated, func(ctx context.Context) (string, error) {
		return l.mailer.SendConfirmation(ctx, updated)
	})
	l.log.Info("booking confirm: ok",
		slog.String("booking_id", id), slog.String("staff_id", staffID), slog.String("email", string(email)))
	return Outcome{Booking: updated, Email: email}, nil
}

func (l *Lifecycle) Decline(ctx context.Context, id, staffID, reason string) (Outcome, error) {
	now := l.stamp()
	reason = strings.TrimSpace(reason)
	patch := Patch{DeclinedAt: &now, HandledBy: staffID}
	if reason != "" {
		patch.Notes = "Declined: " + reason
	}
	updated, err := l.apply(ctx, id, EventDecline, patch)
	if err != nil {
		return Outcome{}, err
	}
	email := l.notify(ctx, updated, func(ctx context.Context) (string, error) {
		return l.mailer.SendRejection(ctx, updated, reason)
	})
	l.log.Info("booking decline: ok",
		slog.String("booking_id", id), slog.String("staff_id", staffID), slog.String("email", string(email)))
	return Outcome{Booking: updated, Email: email}, nil
}

// BlockUser declines the booking if it is still open and then flags its
// client as blocked. The client stays unblocked when the decline fails.
func (l *Lifecycle) BlockUser(ctx context.Context, id, staffID, reason string) (BlockOutcome, error) {
	b, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return BlockOutcome{}, err
	}
	reason = strings.TrimSpace(reason)

	if !StateOf(b).Terminal() {
		now := l.stamp()
		note := "Declined: client blocked"
		if reason != "" {
			note += " (" + reason + ")"
		}
		updated, err := l.apply(ctx, id, EventBlock, Patch{DeclinedAt: &now, HandledBy: staffID, Notes: note})
		switch {
		case err == nil:
			b = updated
		case errors.Is(err, ErrStateChanged):
			// another transition may already have closed the booking
			current, getErr := l.repo.GetByID(ctx, id)
			if getErr != nil || !StateOf(current).Terminal() {
				return BlockOutcome{}, err
			}
			b = current
		default:
			return BlockOutcome{}, err
		}
	}

	client, err := l.clients.Block(ctx, b.ClientID, b.Client.Email, reason, staffID)
	if err != nil {
		return BlockOutcome{}, err
	}

	email := l.notify(ctx, b, func(ctx context.Context) (string, error) {
		return l.mailer.SendBlockedNotice(ctx, b.Client, reason)
	})
	l.log.Info("booking block-user: ok",
		slog.String("booking_id", id), slog.String("client_id", client.ID), slog.String("staff_id", staffID))
	return BlockOutcome{Booking: b, Client: client, Email: email}, nil
}

// Complete records that a confirmed appointment took place. Any other
// current state is an error and nothing is written.
func (l *Lifecycle) Complete(ctx context.Context, id, staffID string) (models.Booking, error) {
	now := l.stamp()
	updated, err := l.apply(ctx, id, EventComplete, Patch{CompletedAt: &now, HandledBy: staffID})
	if err != nil {
		return models.Booking{}, err
	}
	if err := l.clients.RecordCompletion(ctx, updated.ClientID); err != nil {
		l.log.Warn("booking complete: client counter update failed",
			slog.String("booking_id", id), slog.String("error", err.Error()))
	}
	l.log.Info("booking complete: ok", slog.String("booking_id", id), slog.String("staff_id", staffID))
	return updated, nil
}

// Suspend abandons a reservation in progress: the session's lock is
// released and its booking, if any, is cancelled. Lock and session cleanup
// errors are only logged.
func (l *Lifecycle) Suspend(ctx context.Context, req SuspendRequest) (*models.Booking, error) {
	sess, err := l.sessions.Load(ctx, req.SessionToken)
	if err != nil {
		if !errors.Is(err, ErrSessionExpired) {
			l.log.Warn("booking suspend: session lookup failed", slog.String("error", err.Error()))
		}
		return nil, nil
	}

	l.locks.Release(ctx, sess.lockHandle())

	var cancelled *models.Booking
	bookingID := sess.BookingID
	if req.BookingID != "" && req.BookingID != bookingID {
		l.log.Warn("booking suspend: booking does not belong to session", slog.String("booking_id", req.BookingID))
		bookingID = ""
	}
	if bookingID != "" {
		now := l.stamp()
		updated, err := l.apply(ctx, bookingID, EventCancel, Patch{CancelledAt: &now, Notes: "Cancelled by client before confirmation"})
		switch {
		case err == nil:
			cancelled = &updated
			if err := l.clients.DecrementTotal(ctx, updated.ClientID); err != nil {
				l.log.Warn("booking suspend: client counter update failed",
					slog.String("booking_id", bookingID), slog.String("error", err.Error()))
			}
		case errors.Is(err, ErrNotFound):
		default:
			var te *TransitionError
			if errors.As(err, &te) {
				return nil, err
			}
			l.log.Warn("booking suspend: cancel failed", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		}
	}

	if err := l.sessions.Delete(ctx, sess.Token); err != nil {
		l.log.Warn("booking suspend: session delete failed", slog.String("error", err.Error()))
	}
	l.log.Info("booking suspend: ok", slog.String("date", sess.Date), slog.String("time", sess.Time))
	return cancelled, nil
}

// AutoExpire declines a verified booking whose appointment time has passed
// without a staff decision. It returns ErrStateChanged when staff acted on
// the booking in the meantime.
func (l *Lifecycle) AutoExpire(ctx context.Context, b models.Booking) (models.Booking, EmailStatus, error) {
	now := l.stamp()
	note := fmt.Sprintf("Auto-declined at %s: appointment time passed without a staff decision", now.Format(time.RFC3339))
	updated, err := l.repo.UpdateWhere(ctx, b.ID, guardFor(sourcesOf(EventExpire)...), Patch{
		Status:     StateDeclined.Status(),
		DeclinedAt: &now,
		HandledBy:  systemActor,
		Notes:      note,
		UpdatedAt:  now,
	})
	if err != nil {
		return models.Booking{}, "", err
	}
	email := l.notify(ctx, updated, func(ctx context.Context) (string, error) {
		return l.mailer.SendRejection(ctx, updated, "The appointment time passed before the shop could confirm it.")
	})
	l.log.Info("booking auto-expire: declined", slog.String("booking_id", b.ID), slog.String("email", string(email)))
	return updated, email, nil
}

// apply validates ev against the booking's current state and writes patch
// conditioned on the booking still being in a state where ev is legal.
func (l *Lifecycle) apply(ctx context.Context, id string, ev Event, patch Patch) (models.Booking, error) {
	b, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	to, err := Next(StateOf(b), ev)
	if err != nil {
		return models.Booking{}, err
	}
	patch.Status = to.Status()
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = l.stamp()
	}
	return l.repo.UpdateWhere(ctx, id, guardFor(sourcesOf(ev)...), patch)
}

// notify sends a non-essential email. Quota refusals and send failures are
// reported, never returned as errors.
func (l *Lifecycle) notify(ctx context.Context, b models.Booking, send func(context.Context) (string, error)) EmailStatus {
	if l.mailer == nil || b.Client.Email == "" {
		return EmailSkipped
	}
	if l.quota != nil {
		decision, err := l.quota.Check(ctx, b.Client.Email, &b, quota.KindNotification)
		if err != nil {
			l.log.Warn("booking notify: quota check failed", slog.String("booking_id", b.ID), slog.String("error", err.Error()))
			return EmailFailed
		}
		if !decision.Allowed {
			return EmailLimited
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()
	if _, err := send(sendCtx); err != nil {
		l.log.Warn("booking notify: send failed", slog.String("booking_id", b.ID), slog.String("error", err.Error()))
		return EmailFailed
	}
	l.recordEmail(ctx, b.Client.Email)
	return EmailSent
}

func (l *Lifecycle) recordEmail(ctx context.Context, email string) {
	if l.quota != nil {
		if err := l.quota.Record(ctx, email); err != nil {
			l.log.Warn("booking email: usage record failed", slog.String("error", err.Error()))
		}
	}
	if err := l.clients.RecordEmail(ctx, email); err != nil {
		l.log.Warn("booking email: client counter update failed", slog.String("error", err.Error()))
	}
}

func (l *Lifecycle) Get(ctx context.Context, id string) (models.Booking, error) {
	return l.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (l *Lifecycle) ListPending(ctx context.Context, limit, offset int64) ([]models.Booking, int64, error) {
	return l.list(ctx, ListFilter{Status: models.BookingStatusPending}, limit, offset)
}

func (l *Lifecycle) ListConfirmed(ctx context.Context, date string, limit, offset int64) ([]models.Booking, int64, error) {
	if _, err := schedule.ParseDate(date, l.location); err != nil {
		return nil, 0, err
	}
	return l.list(ctx, ListFilter{Status: models.BookingStatusConfirmed, Date: date}, limit, offset)
}

func (l *Lifecycle) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Booking, int64, error) {
	return l.list(ctx, filter, limit, offset)
}

func (l *Lifecycle) list(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Booking, int64, error) {
	items, err := l.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := l.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
