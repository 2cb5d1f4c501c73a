package booking

import (
	"errors"
	"testing"

	"barber-booking/internal/models"
)

func TestNextCoversEveryStateEventPair(t *testing.T) {
	legal := map[State]map[Event]State{
		StatePendingUnverified: {
			EventVerify:  StatePendingVerified,
			EventResend:  StatePendingUnverified,
			EventDecline: StateDeclined,
			EventBlock:   StateDeclined,
			EventCancel:  StateCancelled,
		},
		StatePendingVerified: {
			EventConfirm: StateConfirmed,
			EventDecline: StateDeclined,
			EventBlock:   StateDeclined,
			EventCancel:  StateCancelled,
			EventExpire:  StateDeclined,
		},
		StateConfirmed: {
			EventComplete: StateCompleted,
			EventBlock:    StateDeclined,
		},
	}
	states := []State{StatePendingUnverified, StatePendingVerified, StateConfirmed, StateDeclined, StateCancelled, StateCompleted}
	events := []Event{EventVerify, EventResend, EventConfirm, EventDecline, EventBlock, EventComplete, EventCancel, EventExpire}

	for _, s := range states {
		for _, ev := range events {
			to, err := Next(s, ev)
			want, ok := legal[s][ev]
			if ok {
				if err != nil {
					t.Fatalf("%s + %s: unexpected error %v", s, ev, err)
				}
				if to != want {
					t.Fatalf("%s + %s: got %s, want %s", s, ev, to, want)
				}
				continue
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("%s + %s: expected TransitionError, got %v", s, ev, err)
			}
			if to != s {
				t.Fatalf("%s + %s: illegal event moved state to %s", s, ev, to)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateDeclined, StateCancelled, StateCompleted} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []State{StatePendingUnverified, StatePendingVerified, StateConfirmed} {
		if s.Terminal() {
			t.Fatalf("expected %s to be open", s)
		}
	}
}

func TestStateOfSplitsPendingByVerifiedFlag(t *testing.T) {
	b := models.Booking{Status: models.BookingStatusPending}
	if StateOf(b) != StatePendingUnverified {
		t.Fatalf("got %s", StateOf(b))
	}
	b.Verified = true
	if StateOf(b) != StatePendingVerified {
		t.Fatalf("got %s", StateOf(b))
	}
	b.Status = models.BookingStatusConfirmed
	if StateOf(b) != StateConfirmed {
		t.Fatalf("got %s", StateOf(b))
	}
}

func TestGuardForPinsVerifiedOnlyWhenUnambiguous(t *testing.T) {
	g := guardFor(sourcesOf(EventConfirm)...)
	if len(g.Statuses) != 1 || g.Statuses[0] != models.BookingStatusPending {
		t.Fatalf("unexpected statuses %v", g.Statuses)
	}
	if g.Verified == nil || !*g.Verified {
		t.Fatalf("confirm must require a verified booking")
	}

	g = guardFor(sourcesOf(EventVerify)...)
	if g.Verified == nil || *g.Verified {
		t.Fatalf("verify must require an unverified booking")
	}

	g = guardFor(sourcesOf(EventBlock)...)
	if g.Verified != nil {
		t.Fatalf("block-user applies to both pending flags and confirmed")
	}
	hasConfirmed := false
	for _, s := range g.Statuses {
		if s == models.BookingStatusConfirmed {
			hasConfirmed = true
		}
	}
	if !hasConfirmed {
		t.Fatalf("block-user guard must accept confirmed, got %v", g.Statuses)
	}
}
