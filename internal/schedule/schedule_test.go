package schedule

import (
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// 2026-03-02 is a Monday, 2026-03-07 a Saturday, 2026-03-08 a Sunday.

func TestGenerateSlotsWeekday(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlotsWithDuration("2026-03-02", 30, loc)
	if err != nil {
		t.Fatalf("GenerateSlotsWithDuration error: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected 20 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" || slots[len(slots)-1] != "18:30" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
}

func TestGenerateSlotsLongServiceKeepsCadence(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlotsWithDuration("2026-03-02", 90, loc)
	if err != nil {
		t.Fatalf("GenerateSlotsWithDuration error: %v", err)
	}
	if slots[1] != "09:30" {
		t.Fatalf("expected 30 minute cadence, got %v", slots[:2])
	}
	if slots[len(slots)-1] != "17:30" {
		t.Fatalf("expected last start 17:30 for a 90 minute service, got %s", slots[len(slots)-1])
	}
}

func TestGenerateSlotsSaturday(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlotsWithDuration("2026-03-07", 30, loc)
	if err != nil {
		t.Fatalf("GenerateSlotsWithDuration error: %v", err)
	}
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	if slots[0] != "09:00" || slots[len(slots)-1] != "13:30" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
}

func TestGenerateSlotsSundayClosed(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlotsWithDuration("2026-03-08", 30, loc)
	if err != nil {
		t.Fatalf("GenerateSlotsWithDuration error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected 0 slots, got %d", len(slots))
	}
	closed, err := IsClosed("2026-03-08", loc)
	if err != nil || !closed {
		t.Fatalf("expected sunday closed, got %v err=%v", closed, err)
	}
}

func TestGenerateSlotsRejectsBadDuration(t *testing.T) {
	loc := mustLoadLoc(t)
	for _, d := range []int{0, -30, MaxDurationMinutes + 1} {
		if _, err := GenerateSlotsWithDuration("2026-03-02", d, loc); err != ErrInvalidDuration {
			t.Fatalf("duration %d: expected ErrInvalidDuration, got %v", d, err)
		}
	}
	if _, err := GenerateSlotsWithDuration("2026-03-02", MaxDurationMinutes, loc); err != nil {
		t.Fatalf("max duration should be accepted: %v", err)
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-03-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-03-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected today to be not past")
	}
}

func TestIsSlotPast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, loc)
	cases := map[string]bool{
		"09:30": true,
		"10:00": true,
		"10:30": false,
	}
	for clock, want := range cases {
		past, err := IsSlotPast("2026-03-04", clock, loc, now)
		if err != nil {
			t.Fatalf("IsSlotPast error: %v", err)
		}
		if past != want {
			t.Fatalf("IsSlotPast(%s) = %v, want %v", clock, past, want)
		}
	}
}

func TestIsSlotAllowedWithDuration(t *testing.T) {
	loc := mustLoadLoc(t)
	ok, err := IsSlotAllowedWithDuration("2026-03-04", "18:30", 30, loc)
	if err != nil || !ok {
		t.Fatalf("expected 18:30 allowed for 30 minutes, got %v err=%v", ok, err)
	}
	ok, _ = IsSlotAllowedWithDuration("2026-03-04", "18:30", 60, loc)
	if ok {
		t.Fatalf("expected 18:30 rejected for a 60 minute service")
	}
	ok, _ = IsSlotAllowedWithDuration("2026-03-04", "09:15", 30, loc)
	if ok {
		t.Fatalf("expected off-cadence time rejected")
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	booked := Interval{Start: 14 * 60, End: 14*60 + 30}
	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"ends at start", Interval{Start: 13*60 + 30, End: 14 * 60}, false},
		{"starts at end", Interval{Start: 14*60 + 30, End: 15 * 60}, false},
		{"same", booked, true},
		{"contains", Interval{Start: 13 * 60, End: 15 * 60}, true},
		{"inside", Interval{Start: 14*60 + 10, End: 14*60 + 20}, true},
		{"tail overlap", Interval{Start: 13*60 + 30, End: 14*60 + 1}, true},
	}
	for _, tc := range cases {
		if got := Overlaps(booked, tc.other); got != tc.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := Overlaps(tc.other, booked); got != tc.want {
			t.Fatalf("%s: Overlaps not symmetric", tc.name)
		}
	}
}

func TestFilterOverlapping(t *testing.T) {
	slots := []string{"13:00", "13:30", "14:00", "14:30", "15:00"}
	reserved := []Interval{{Start: 14 * 60, End: 14*60 + 60}}
	filtered, err := FilterOverlapping(slots, 30, reserved)
	if err != nil {
		t.Fatalf("FilterOverlapping error: %v", err)
	}
	want := []string{"13:00", "13:30", "15:00"}
	if len(filtered) != len(want) {
		t.Fatalf("expected %v, got %v", want, filtered)
	}
	for i := range want {
		if filtered[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, filtered)
		}
	}
}

func TestOnCadence(t *testing.T) {
	if !OnCadence("10:30") || OnCadence("10:15") || OnCadence("25:00") {
		t.Fatalf("unexpected cadence checks")
	}
}
