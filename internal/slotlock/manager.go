package slotlock

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultTTL = 15 * time.Minute

var (
	ErrConflict      = errors.New("slot already locked")
	ErrNotFound      = errors.New("slot lock not found")
	ErrMissingHolder = errors.New("lock holder is required")
)

// Handle is returned by a successful Acquire and identifies the lock for
// Release.
type Handle struct {
	Key       Key
	Holder    string
	ExpiresAt time.Time
}

// Manager claims slots through a unique insert. Concurrent claims on the same
// key are arbitrated by the store: exactly one insert wins and the rest get
// ErrConflict. Nothing is retried.
type Manager struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger
}

func NewManager(repo Repository, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With(slog.String("component", "slotlock")),
	}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Acquire(ctx context.Context, key Key, holder string) (Handle, error) {
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return Handle{}, ErrMissingHolder
	}
	now := m.now()

	// A lock past its expiry may still be stored if the TTL monitor has not
	// run yet. It must not block the slot.
	if n, err := m.repo.DeleteExpiredKey(ctx, key, now); err != nil {
		return Handle{}, err
	} else if n > 0 {
		m.log.Info("slotlock acquire: removed stale lock",
			slog.String("date", key.Date), slog.String("time", key.Time), slog.Int("service_id", key.ServiceID))
	}

	lock := models.SlotLock{
		ID:        primitive.NewObjectID().Hex(),
		Date:      key.Date,
		Time:      key.Time,
		ServiceID: key.ServiceID,
		Holder:    holder,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	err := m.repo.Insert(ctx, lock)
	if err == nil {
		return Handle{Key: key, Holder: holder, ExpiresAt: lock.ExpiresAt}, nil
	}
	if !errors.Is(err, ErrConflict) {
		return Handle{}, err
	}

	existing, findErr := m.repo.Find(ctx, key)
	if findErr == nil && existing.Holder == holder && !existing.Expired(now) {
		return Handle{Key: key, Holder: holder, ExpiresAt: existing.ExpiresAt}, nil
	}

	m.log.Info("slotlock acquire: conflict",
		slog.String("date", key.Date), slog.String("time", key.Time), slog.Int("service_id", key.ServiceID))
	return Handle{}, ErrConflict
}

// Release deletes the lock if it is still held by the handle's holder.
// Failures are logged only; an unreleased lock expires on its own.
func (m *Manager) Release(ctx context.Context, h Handle) {
	if h.Holder == "" {
		return
	}
	n, err := m.repo.Delete(ctx, h.Key, h.Holder)
	if err != nil {
		m.log.Warn("slotlock release: delete failed",
			slog.String("date", h.Key.Date),
			slog.String("time", h.Key.Time),
			slog.Int("service_id", h.Key.ServiceID),
			slog.String("error", err.Error()),
		)
		return
	}
	if n == 0 {
		m.log.Debug("slotlock release: nothing to release",
			slog.String("date", h.Key.Date), slog.String("time", h.Key.Time))
	}
}

// Active returns the unexpired locks for a date. The expiry filter is applied
// again here so a read never depends on the store's own expiry timing.
func (m *Manager) Active(ctx context.Context, date string) ([]models.SlotLock, error) {
	now := m.now()
	items, err := m.repo.ListActive(ctx, date, now)
	if err != nil {
		return nil, err
	}
	active := items[:0]
	for _, l := range items {
		if !l.Expired(now) {
			active = append(active, l)
		}
	}
	return active, nil
}

// Sweep removes every expired lock.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}
