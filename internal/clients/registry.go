package clients

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"barber-booking/internal/models"
	"barber-booking/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("client not found")
	ErrDuplicate = errors.New("client already exists")
	ErrBlocked   = errors.New("client is blocked")
)

// Registry keeps one profile per email with aggregate counters and the
// block flag that gates new bookings.
type Registry struct {
	repo     Repository
	location *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func NewRegistry(repo Repository, location *time.Location, log *slog.Logger) *Registry {
	return &Registry{
		repo:     repo,
		location: location,
		now:      time.Now,
		log:      log.With(slog.String("component", "clients")),
	}
}

// WithClock replaces the time source.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) stamp() time.Time {
	return r.now().In(r.location)
}

// CheckAllowed rejects clients flagged as blocked and phones on the legacy
// blocklist.
func (r *Registry) CheckAllowed(ctx context.Context, email, phone string) error {
	c, err := r.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
	switch {
	case err == nil && c.IsBlocked:
		return ErrBlocked
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	blocked, err := r.repo.IsPhoneBlocked(ctx, utils.NormalizePhone(phone))
	if err != nil {
		return err
	}
	if blocked {
		return ErrBlocked
	}
	return nil
}

// Register finds or creates the client for the snapshot's email, refreshes
// its contact details and counts one more booking.
func (r *Registry) Register(ctx context.Context, snapshot models.ClientSnapshot) (models.Client, error) {
	email := utils.NormalizeEmail(snapshot.Email)
	now := r.stamp()

	existing, err := r.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		created := models.Client{
			ID:            primitive.NewObjectID().Hex(),
			Email:         email,
			Name:          strings.TrimSpace(snapshot.Name),
			Phone:         snapshot.Phone,
			CountryCode:   snapshot.CountryCode,
			TotalBookings: 1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = r.repo.Insert(ctx, created)
		if err == nil {
			r.log.Info("clients register: created", slog.String("client_id", created.ID))
			return created, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return models.Client{}, err
		}
		// lost a race with a concurrent first booking for the same email
		existing, err = r.repo.FindByEmail(ctx, email)
	}
	if err != nil {
		return models.Client{}, err
	}

	if err := r.repo.UpdateContact(ctx, existing.ID, snapshot, now); err != nil {
		return models.Client{}, err
	}
	if err := r.repo.IncrementTotal(ctx, existing.ID, now); err != nil {
		return models.Client{}, err
	}
	existing.Name = snapshot.Name
	existing.Phone = snapshot.Phone
	existing.CountryCode = snapshot.CountryCode
	existing.TotalBookings++
	return existing, nil
}

func (r *Registry) DecrementTotal(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	return r.repo.DecrementTotal(ctx, clientID, r.stamp())
}

func (r *Registry) RecordCompletion(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	return r.repo.RecordCompletion(ctx, clientID, r.stamp())
}

func (r *Registry) RecordEmail(ctx context.Context, email string) error {
	return r.repo.RecordEmail(ctx, utils.NormalizeEmail(email), r.stamp())
}

// Block flags the client. When clientID is empty the client is resolved by
// email.
func (r *Registry) Block(ctx context.Context, clientID, email, reason, staffID string) (models.Client, error) {
	if clientID == "" {
		c, err := r.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
		if err != nil {
			return models.Client{}, err
		}
		clientID = c.ID
	}
	c, err := r.repo.SetBlocked(ctx, clientID, true, strings.TrimSpace(reason), staffID, r.stamp())
	if err != nil {
		return models.Client{}, err
	}
	r.log.Info("clients block: ok", slog.String("client_id", clientID), slog.String("staff_id", staffID))
	return c, nil
}

func (r *Registry) Unblock(ctx context.Context, clientID, staffID string) (models.Client, error) {
	c, err := r.repo.SetBlocked(ctx, clientID, false, "", staffID, r.stamp())
	if err != nil {
		return models.Client{}, err
	}
	r.log.Info("clients unblock: ok", slog.String("client_id", clientID), slog.String("staff_id", staffID))
	return c, nil
}

func (r *Registry) Get(ctx context.Context, clientID string) (models.Client, error) {
	return r.repo.GetByID(ctx, clientID)
}

func (r *Registry) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Client, int64, error) {
	items, err := r.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
