package storetest

import (
	"context"
	"sync"
	"time"

	"barber-booking/internal/models"
	"barber-booking/internal/slotlock"
)

// SlotLocks enforces the unique (date, time, serviceId) constraint under a
// single mutex, as the unique index does in Mongo.
type SlotLocks struct {
	mu    sync.Mutex
	items map[slotlock.Key]models.SlotLock
}

func NewSlotLocks() *SlotLocks {
	return &SlotLocks{items: make(map[slotlock.Key]models.SlotLock)}
}

func keyOf(l models.SlotLock) slotlock.Key {
	return slotlock.Key{Date: l.Date, Time: l.Time, ServiceID: l.ServiceID}
}

func (r *SlotLocks) Insert(_ context.Context, lock models.SlotLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := keyOf(lock)
	if _, exists := r.items[k]; exists {
		return slotlock.ErrConflict
	}
	r.items[k] = lock
	return nil
}

// Put stores lock without the uniqueness check.
func (r *SlotLocks) Put(lock models.SlotLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[keyOf(lock)] = lock
}

func (r *SlotLocks) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *SlotLocks) Find(_ context.Context, key slotlock.Key) (models.SlotLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[key]
	if !ok {
		return models.SlotLock{}, slotlock.ErrNotFound
	}
	return l, nil
}

func (r *SlotLocks) DeleteExpiredKey(_ context.Context, key slotlock.Key, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[key]
	if !ok || now.Before(l.ExpiresAt) {
		return 0, nil
	}
	delete(r.items, key)
	return 1, nil
}

func (r *SlotLocks) Delete(_ context.Context, key slotlock.Key, holder string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[key]
	if !ok || l.Holder != holder {
		return 0, nil
	}
	delete(r.items, key)
	return 1, nil
}

func (r *SlotLocks) ListActive(_ context.Context, date string, now time.Time) ([]models.SlotLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SlotLock, 0)
	for _, l := range r.items {
		if l.Date == date && now.Before(l.ExpiresAt) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *SlotLocks) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, l := range r.items {
		if !now.Before(l.ExpiresAt) {
			delete(r.items, k)
			n++
		}
	}
	return n, nil
}

var _ slotlock.Repository = (*SlotLocks)(nil)
