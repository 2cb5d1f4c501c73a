package quota_test

import (
	"context"
	"testing"
	"time"

	"barber-booking/internal/logging"
	"barber-booking/internal/models"
	"barber-booking/internal/quota"
	"barber-booking/internal/storetest"
)

func newGuard(clock *storetest.Clock, limits quota.Limits) *quota.Guard {
	return quota.NewGuard(storetest.NewEmailUsage(), limits, time.UTC, logging.Discard()).WithClock(clock.Now)
}

func TestDailyCapAppliesToEveryKind(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC))
	g := newGuard(clock, quota.Limits{DailyPerRecipient: 2, PerBooking: 5, MinInterval: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := g.Record(ctx, "Ion@Example.com"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	for _, kind := range []quota.Kind{quota.KindVerification, quota.KindNotification} {
		d, err := g.Check(ctx, "ion@example.com", nil, kind)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if d.Allowed || d.Reason != quota.ReasonDailyLimit || d.RetryAfter != 2*time.Hour {
			t.Fatalf("expected daily limit until midnight, got %+v", d)
		}
	}

	clock.Advance(2 * time.Hour)
	d, err := g.Check(ctx, "ion@example.com", nil, quota.KindVerification)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed || d.RemainingToday != 2 {
		t.Fatalf("a new day must reset the cap, got %+v", d)
	}
}

func TestPerBookingCapAndIntervalOnlyForVerification(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	clock := storetest.NewClock(now)
	g := newGuard(clock, quota.DefaultLimits())
	ctx := context.Background()

	sent := now.Add(-30 * time.Second)
	b := &models.Booking{EmailSendCount: 2, LastEmailSentAt: &sent}

	d, _ := g.Check(ctx, "a@example.com", b, quota.KindVerification)
	if d.Allowed || d.Reason != quota.ReasonTooSoon || d.RetryAfter != 30*time.Second {
		t.Fatalf("expected too_soon for 30s, got %+v", d)
	}
	d, _ = g.Check(ctx, "a@example.com", b, quota.KindNotification)
	if !d.Allowed {
		t.Fatalf("notifications ignore the send interval, got %+v", d)
	}

	clock.Advance(time.Minute)
	d, _ = g.Check(ctx, "a@example.com", b, quota.KindVerification)
	if !d.Allowed || d.RemainingForBooking != 3 {
		t.Fatalf("expected allowed with 3 left, got %+v", d)
	}

	b.EmailSendCount = 5
	d, _ = g.Check(ctx, "a@example.com", b, quota.KindVerification)
	if d.Allowed || d.Reason != quota.ReasonBookingLimit {
		t.Fatalf("expected booking_limit, got %+v", d)
	}
	d, _ = g.Check(ctx, "a@example.com", b, quota.KindNotification)
	if !d.Allowed {
		t.Fatalf("notifications ignore the per-booking cap, got %+v", d)
	}
}

func TestCheckDoesNotRecord(t *testing.T) {
	clock := storetest.NewClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	g := newGuard(clock, quota.Limits{DailyPerRecipient: 1, PerBooking: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := g.Check(ctx, "a@example.com", nil, quota.KindVerification)
		if err != nil || !d.Allowed {
			t.Fatalf("check %d: %+v %v", i, d, err)
		}
	}
}
