// Package storetest provides in-memory repositories with the same
// uniqueness and conditional-update semantics as the Mongo ones, for tests
// that exercise several packages together.
package storetest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"barber-booking/internal/booking"
	"barber-booking/internal/models"
)

type Bookings struct {
	mu    sync.Mutex
	items map[string]models.Booking
	// FailInsert, when set, is returned by the next Insert.
	FailInsert error
}

func NewBookings() *Bookings {
	return &Bookings{items: make(map[string]models.Booking)}
}

func (r *Bookings) Insert(_ context.Context, b models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailInsert; err != nil {
		r.FailInsert = nil
		return err
	}
	r.items[b.ID] = b
	return nil
}

// Put stores b as is, replacing any booking with the same id.
func (r *Bookings) Put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = b
}

func (r *Bookings) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Bookings) GetByID(_ context.Context, id string) (models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return models.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (r *Bookings) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return booking.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Bookings) DeleteWhere(_ context.Context, id string, guard booking.Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return booking.ErrNotFound
	}
	if !guardHolds(b, guard) {
		return booking.ErrStateChanged
	}
	delete(r.items, id)
	return nil
}

func guardHolds(b models.Booking, guard booking.Guard) bool {
	if len(guard.Statuses) > 0 && !slices.Contains(guard.Statuses, b.Status) {
		return false
	}
	return guard.Verified == nil || b.Verified == *guard.Verified
}

func (r *Bookings) UpdateWhere(_ context.Context, id string, guard booking.Guard, patch booking.Patch) (models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return models.Booking{}, booking.ErrNotFound
	}
	if !guardHolds(b, guard) {
		return models.Booking{}, booking.ErrStateChanged
	}

	b.UpdatedAt = patch.UpdatedAt
	if patch.Status != "" {
		b.Status = patch.Status
	}
	if patch.Verified != nil {
		b.Verified = *patch.Verified
	}
	if patch.VerificationCode != nil {
		b.VerificationCode = *patch.VerificationCode
	}
	if patch.EmailSentAt != nil {
		at := *patch.EmailSentAt
		b.LastEmailSentAt = &at
		b.EmailSendCount++
	}
	if patch.Notes != "" {
		b.Notes = patch.Notes
	}
	if patch.HandledBy != "" {
		b.HandledBy = patch.HandledBy
	}
	setTime(&b.VerifiedAt, patch.VerifiedAt)
	setTime(&b.ConfirmedAt, patch.ConfirmedAt)
	setTime(&b.DeclinedAt, patch.DeclinedAt)
	setTime(&b.CancelledAt, patch.CancelledAt)
	setTime(&b.CompletedAt, patch.CompletedAt)

	r.items[id] = b
	return b, nil
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func (r *Bookings) selectWhere(match func(models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Booking, 0)
	for _, b := range r.items {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Bookings) ActiveOnDate(_ context.Context, date string) ([]models.Booking, error) {
	return r.selectWhere(func(b models.Booking) bool {
		return b.Date == date && b.Occupies()
	}), nil
}

func matchesFilter(b models.Booking, f booking.ListFilter) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Date != "" && b.Date != f.Date {
		return false
	}
	if f.Verified != nil && b.Verified != *f.Verified {
		return false
	}
	return true
}

func (r *Bookings) List(_ context.Context, filter booking.ListFilter, limit, offset int64) ([]models.Booking, error) {
	items := r.selectWhere(func(b models.Booking) bool { return matchesFilter(b, filter) })
	if offset >= int64(len(items)) {
		return []models.Booking{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items, nil
}

func (r *Bookings) Count(_ context.Context, filter booking.ListFilter) (int64, error) {
	return int64(len(r.selectWhere(func(b models.Booking) bool { return matchesFilter(b, filter) }))), nil
}

func (r *Bookings) ListPendingVerified(_ context.Context) ([]models.Booking, error) {
	return r.selectWhere(func(b models.Booking) bool {
		return b.Status == models.BookingStatusPending && b.Verified
	}), nil
}

func (r *Bookings) ListUnverifiedBefore(_ context.Context, cutoff time.Time) ([]models.Booking, error) {
	return r.selectWhere(func(b models.Booking) bool {
		return b.Status == models.BookingStatusPending && !b.Verified && b.CreatedAt.Before(cutoff)
	}), nil
}

func (r *Bookings) ListDeclinedBefore(_ context.Context, cutoff time.Time) ([]models.Booking, error) {
	return r.selectWhere(func(b models.Booking) bool {
		if b.Status != models.BookingStatusDeclined {
			return false
		}
		if b.DeclinedAt != nil {
			return b.DeclinedAt.Before(cutoff)
		}
		return b.CreatedAt.Before(cutoff)
	}), nil
}

var _ booking.Repository = (*Bookings)(nil)
