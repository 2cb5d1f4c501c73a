package slotlock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"barber-booking/internal/logging"
	"barber-booking/internal/models"
	"barber-booking/internal/slotlock"
	"barber-booking/internal/storetest"
)

var key = slotlock.Key{Date: "2026-03-03", Time: "10:00", ServiceID: 1}

func newManager(clock *storetest.Clock) (*slotlock.Manager, *storetest.SlotLocks) {
	repo := storetest.NewSlotLocks()
	return slotlock.NewManager(repo, 15*time.Minute, logging.Discard()).WithClock(clock.Now), repo
}

func TestAcquireUnderContentionHasOneWinner(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	m, _ := newManager(clock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(holder string) {
			defer wg.Done()
			_, err := m.Acquire(context.Background(), key, holder)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, holder)
			case errors.Is(err, slotlock.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("holder-%d", i))
	}
	wg.Wait()

	if len(winners) != 1 || conflicts != 49 {
		t.Fatalf("expected 1 winner and 49 conflicts, got %v and %d", winners, conflicts)
	}
}

func TestAcquireBySameHolderIsIdempotent(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	m, repo := newManager(clock)

	first, err := m.Acquire(context.Background(), key, "session-a")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := m.Acquire(context.Background(), key, "session-a")
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("re-acquire must not extend the lock")
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one stored lock, have %d", repo.Len())
	}
}

func TestExpiredLockIsTakenOver(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	m, _ := newManager(clock)

	if _, err := m.Acquire(context.Background(), key, "session-a"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clock.Advance(14 * time.Minute)
	if _, err := m.Acquire(context.Background(), key, "session-b"); !errors.Is(err, slotlock.ErrConflict) {
		t.Fatalf("live lock must conflict, got %v", err)
	}

	clock.Advance(time.Minute)
	h, err := m.Acquire(context.Background(), key, "session-b")
	if err != nil {
		t.Fatalf("expired lock must not block: %v", err)
	}
	if h.Holder != "session-b" {
		t.Fatalf("unexpected holder %s", h.Holder)
	}
}

func TestReleaseOnlyByHolder(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	m, repo := newManager(clock)
	ctx := context.Background()

	h, err := m.Acquire(ctx, key, "session-a")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	m.Release(ctx, slotlock.Handle{Key: key, Holder: "session-b"})
	if repo.Len() != 1 {
		t.Fatalf("another holder must not release the lock")
	}
	m.Release(ctx, h)
	if repo.Len() != 0 {
		t.Fatalf("holder release must delete the lock")
	}
	m.Release(ctx, h)
}

func TestAcquireRequiresHolder(t *testing.T) {
	m, _ := newManager(storetest.NewClock(time.Now()))
	if _, err := m.Acquire(context.Background(), key, "  "); !errors.Is(err, slotlock.ErrMissingHolder) {
		t.Fatalf("expected ErrMissingHolder, got %v", err)
	}
}

func TestActiveAndSweepIgnoreExpired(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	m, repo := newManager(storetest.NewClock(now))
	ctx := context.Background()

	repo.Put(models.SlotLock{ID: "old", Date: key.Date, Time: "09:00", ServiceID: 1, Holder: "a", ExpiresAt: now})
	repo.Put(models.SlotLock{ID: "live", Date: key.Date, Time: "09:30", ServiceID: 1, Holder: "b", ExpiresAt: now.Add(time.Minute)})
	repo.Put(models.SlotLock{ID: "other-day", Date: "2026-03-04", Time: "09:30", ServiceID: 1, Holder: "c", ExpiresAt: now.Add(time.Minute)})

	active, err := m.Active(ctx, key.Date)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "live" {
		t.Fatalf("unexpected active locks %+v", active)
	}

	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 || repo.Len() != 2 {
		t.Fatalf("expected one lock swept, got %d (left %d)", n, repo.Len())
	}
}
