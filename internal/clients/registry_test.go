package clients_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"barber-booking/internal/clients"
	"barber-booking/internal/logging"
	"barber-booking/internal/models"
	"barber-booking/internal/storetest"
)

func newRegistry() (*clients.Registry, *storetest.Clients) {
	repo := storetest.NewClients()
	clock := storetest.NewClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	return clients.NewRegistry(repo, time.UTC, logging.Discard()).WithClock(clock.Now), repo
}

func TestRegisterDeduplicatesByEmail(t *testing.T) {
	reg, repo := newRegistry()
	ctx := context.Background()

	first, err := reg.Register(ctx, models.ClientSnapshot{Name: "Ion", Phone: "0711111111", Email: "Ion@Example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := reg.Register(ctx, models.ClientSnapshot{Name: "Ion P", Phone: "0722222222", Email: "ion@example.com "})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same email must map to one client")
	}

	stored, _ := repo.GetByID(ctx, first.ID)
	if stored.TotalBookings != 2 || stored.Phone != "0722222222" || stored.Name != "Ion P" {
		t.Fatalf("unexpected client %+v", stored)
	}
}

func TestConcurrentFirstBookingsCreateOneClient(t *testing.T) {
	reg, repo := newRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Register(context.Background(), models.ClientSnapshot{Name: "Ana", Email: "ana@example.com"}); err != nil {
				t.Errorf("register: %v", err)
			}
		}()
	}
	wg.Wait()

	n, _ := repo.Count(context.Background(), clients.ListFilter{})
	if n != 1 {
		t.Fatalf("expected one client, got %d", n)
	}
	c, _ := repo.FindByEmail(context.Background(), "ana@example.com")
	if c.TotalBookings != 10 {
		t.Fatalf("expected 10 bookings counted, got %d", c.TotalBookings)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	reg, repo := newRegistry()
	ctx := context.Background()

	c, err := reg.Register(ctx, models.ClientSnapshot{Name: "Ion", Phone: "0711111111", Email: "ion@example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.CheckAllowed(ctx, "ion@example.com", "0711111111"); err != nil {
		t.Fatalf("unexpected block: %v", err)
	}

	blocked, err := reg.Block(ctx, "", "ION@example.com", " spam ", "staff-1")
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !blocked.IsBlocked || blocked.BlockReason != "spam" || blocked.BlockedBy != "staff-1" || blocked.BlockedAt == nil {
		t.Fatalf("unexpected block result %+v", blocked)
	}
	if err := reg.CheckAllowed(ctx, "ion@example.com", ""); !errors.Is(err, clients.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}

	list, total, err := reg.List(ctx, clients.ListFilter{BlockedOnly: true}, 10, 0)
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("unexpected blocked list %v %d %v", list, total, err)
	}

	if _, err := reg.Unblock(ctx, c.ID, "staff-1"); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	stored, _ := repo.GetByID(ctx, c.ID)
	if stored.IsBlocked || stored.BlockReason != "" {
		t.Fatalf("client still blocked: %+v", stored)
	}
	if err := reg.CheckAllowed(ctx, "ion@example.com", ""); err != nil {
		t.Fatalf("unexpected block after unblock: %v", err)
	}
}

func TestLegacyPhoneBlocklist(t *testing.T) {
	reg, repo := newRegistry()
	repo.BlockPhone("+40711111111")

	if err := reg.CheckAllowed(context.Background(), "new@example.com", "+40 711 111 111"); !errors.Is(err, clients.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestCountersNeverGoNegative(t *testing.T) {
	reg, repo := newRegistry()
	ctx := context.Background()

	c, _ := reg.Register(ctx, models.ClientSnapshot{Name: "Ion", Email: "ion@example.com"})
	for i := 0; i < 3; i++ {
		if err := reg.DecrementTotal(ctx, c.ID); err != nil {
			t.Fatalf("decrement: %v", err)
		}
	}
	stored, _ := repo.GetByID(ctx, c.ID)
	if stored.TotalBookings != 0 {
		t.Fatalf("expected 0, got %d", stored.TotalBookings)
	}

	if err := reg.RecordCompletion(ctx, c.ID); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if err := reg.RecordEmail(ctx, "ION@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}
	stored, _ = repo.GetByID(ctx, c.ID)
	if stored.CompletedBookings != 1 || stored.LastVisit == nil || stored.EmailsSent != 1 {
		t.Fatalf("unexpected counters %+v", stored)
	}
}
