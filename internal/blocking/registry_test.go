package blocking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"barber-booking/internal/availability"
	"barber-booking/internal/blocking"
	"barber-booking/internal/models"
	"barber-booking/internal/storetest"
)

var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

const tuesday = "2026-03-03"

func TestFullDayBlockRefusedWhileBookingActive(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()
	env.BookingRepo.Put(models.Booking{ID: "b1", Date: tuesday, Time: "10:00", Duration: 30, ServiceID: 1,
		Status: models.BookingStatusPending, Verified: true})

	_, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, FullDay: true}, "staff-1")
	var ce *blocking.ConflictError
	if !errors.As(err, &ce) || len(ce.Bookings) != 1 || ce.Bookings[0].ID != "b1" {
		t.Fatalf("expected conflict listing b1, got %v", err)
	}
	if _, found, _ := env.Blocks.ForDate(ctx, tuesday); found {
		t.Fatalf("a refused block must not be stored")
	}

	if _, err := env.Lifecycle.Decline(ctx, "b1", "staff-1", "owner away"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	bd, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, FullDay: true}, "staff-1")
	if err != nil {
		t.Fatalf("block after decline: %v", err)
	}
	if !bd.IsFullDayBlocked || bd.Reason != "Closed all day" {
		t.Fatalf("unexpected block %+v", bd)
	}

	res, err := env.Availability.Compute(ctx, availability.Query{Date: tuesday, ServiceID: storetest.Haircut.ID})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(res.Slots) != 0 || res.Reason != availability.ReasonBlocked {
		t.Fatalf("expected blocked day, got %+v", res)
	}
}

func TestHourBlockConflictsUseBookingDuration(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()
	env.BookingRepo.Put(models.Booking{ID: "beard", Date: tuesday, Time: "09:30", Duration: 60, ServiceID: 2,
		Status: models.BookingStatusConfirmed, Verified: true})

	_, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, Hours: []string{"10:00"}}, "staff-1")
	var ce *blocking.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("10:00 lies inside 09:30-10:30, expected conflict, got %v", err)
	}

	if _, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, Hours: []string{"10:30", "09:00"}}, "staff-1"); err != nil {
		t.Fatalf("touching hours must not conflict: %v", err)
	}
}

func TestBlockMergesHoursAndUnblockRemovesThem(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()

	if _, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, Hours: []string{"11:00"}}, "staff-1"); err != nil {
		t.Fatalf("block: %v", err)
	}
	bd, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, Hours: []string{"09:00", "11:00"}}, "staff-2")
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(bd.Hours) != 2 || bd.Hours[0] != "09:00" || bd.Hours[1] != "11:00" {
		t.Fatalf("unexpected merged hours %v", bd.Hours)
	}
	if bd.Reason != "Unavailable: 09:00, 11:00" || bd.CreatedBy != "staff-1" {
		t.Fatalf("unexpected record %+v", bd)
	}

	res, err := env.Availability.Compute(ctx, availability.Query{Date: tuesday, ServiceID: storetest.Beard.ID})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, s := range []string{"09:00", "10:30", "11:00"} {
		if res.Contains(s) {
			t.Fatalf("%s overlaps a blocked hour for a 60 minute service", s)
		}
	}
	if !res.Contains("09:30") || !res.Contains("11:30") {
		t.Fatalf("expected 09:30 and 11:30 to remain, got %v", res.Slots)
	}

	bd, deleted, err := env.Blocks.Unblock(ctx, blocking.UnblockRequest{Date: tuesday, Hours: []string{"09:00"}}, "staff-1")
	if err != nil || deleted {
		t.Fatalf("unblock: %v deleted=%v", err, deleted)
	}
	if len(bd.Hours) != 1 || bd.Reason != "Unavailable: 11:00" {
		t.Fatalf("unexpected record %+v", bd)
	}
	_, deleted, err = env.Blocks.Unblock(ctx, blocking.UnblockRequest{Date: tuesday, Hours: []string{"11:00"}}, "staff-1")
	if err != nil || !deleted {
		t.Fatalf("last hour must delete the record: %v deleted=%v", err, deleted)
	}
}

func TestUnblockExpandsFullDay(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()

	if _, err := env.Blocks.Block(ctx, blocking.BlockRequest{Date: tuesday, FullDay: true, Reason: "Holiday"}, "staff-1"); err != nil {
		t.Fatalf("block: %v", err)
	}
	bd, deleted, err := env.Blocks.Unblock(ctx, blocking.UnblockRequest{Date: tuesday, Hours: []string{"09:00"}}, "staff-1")
	if err != nil || deleted {
		t.Fatalf("unblock: %v deleted=%v", err, deleted)
	}
	if bd.IsFullDayBlocked || len(bd.Hours) != 19 || bd.Hours[0] != "09:30" {
		t.Fatalf("unexpected expansion %+v", bd)
	}
	if bd.Reason != "Holiday" {
		t.Fatalf("a custom reason must be kept, got %q", bd.Reason)
	}
}

func TestBlockRejectsBadInput(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()

	cases := []struct {
		name string
		req  blocking.BlockRequest
		want error
	}{
		{"past date", blocking.BlockRequest{Date: "2026-03-01", FullDay: true}, blocking.ErrPastDate},
		{"off cadence", blocking.BlockRequest{Date: tuesday, Hours: []string{"10:15"}}, blocking.ErrInvalidHour},
		{"no hours", blocking.BlockRequest{Date: tuesday}, blocking.ErrNoHours},
	}
	for _, tc := range cases {
		if _, err := env.Blocks.Block(ctx, tc.req, "staff-1"); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, _, err := env.Blocks.Unblock(ctx, blocking.UnblockRequest{Date: tuesday, Hours: []string{"10:00"}}, "staff-1"); !errors.Is(err, blocking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDeleteExpired(t *testing.T) {
	env := storetest.NewEnv(monday)
	ctx := context.Background()
	for _, d := range []string{"2026-02-27", "2026-03-01", "2026-03-05"} {
		if _, err := env.BlockRepo.Save(ctx, models.BlockedDate{ID: "id-" + d, Date: d, IsFullDayBlocked: true}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	upcoming, err := env.Blocks.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Date != "2026-03-05" {
		t.Fatalf("unexpected upcoming list %+v", upcoming)
	}

	n, err := env.Blocks.DeleteExpired(ctx, monday)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("only dates before yesterday are expired, removed %d", n)
	}
	all, _ := env.Blocks.List(ctx, true)
	if len(all) != 2 {
		t.Fatalf("expected 2 records left, got %d", len(all))
	}

	if err := env.Blocks.Delete(ctx, "id-2026-03-05"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.Blocks.Delete(ctx, "id-2026-03-05"); !errors.Is(err, blocking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
