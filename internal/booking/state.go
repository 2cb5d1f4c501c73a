package booking

import (
	"fmt"

	"barber-booking/internal/models"
)

// State is the lifecycle position of a booking. Pending bookings are split
// by their verified flag.
type State string

const (
	StatePendingUnverified State = "pending_unverified"
	StatePendingVerified   State = "pending_verified"
	StateConfirmed         State = "confirmed"
	StateDeclined          State = "declined"
	StateCancelled         State = "cancelled"
	StateCompleted         State = "completed"
)

type Event string

const (
	EventVerify   Event = "verify"
	EventResend   Event = "resend"
	EventConfirm  Event = "confirm"
	EventDecline  Event = "decline"
	EventBlock    Event = "block-user"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
	EventExpire   Event = "expire"
)

var transitions = map[State]map[Event]State{
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

// TransitionError reports an event that is not legal from the current state.
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking in state %s", e.Event, e.From)
}

func StateOf(b models.Booking) State {
	switch b.Status {
	case models.BookingStatusPending:
		if b.Verified {
			return StatePendingVerified
		}
		return StatePendingUnverified
	case models.BookingStatusConfirmed:
		return StateConfirmed
	case models.BookingStatusDeclined:
		return StateDeclined
	case models.BookingStatusCancelled:
		return StateCancelled
	case models.BookingStatusCompleted:
		return StateCompleted
	default:
		return State(b.Status)
	}
}

// Next returns the state reached by applying ev to from.
func Next(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, &TransitionError{From: from, Event: ev}
	}
	return to, nil
}

// Terminal reports whether no event can leave s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Status returns the stored status string for s.
func (s State) Status() string {
	switch s {
	case StatePendingUnverified, StatePendingVerified:
		return models.BookingStatusPending
	default:
		return string(s)
	}
}

// Verified returns the stored verified flag for s.
func (s State) Verified() bool {
	return s != StatePendingUnverified
}

// guardFor builds the store precondition matching state s.
func guardFor(states ...State) Guard {
	g := Guard{}
	verified := map[bool]bool{}
	for _, s := range states {
		g.Statuses = append(g.Statuses, s.Status())
		if s.Status() == models.BookingStatusPending {
			verified[s.Verified()] = true
		}
	}
	// pin the verified flag only when every allowed state is pending with
	// the same flag
	if len(verified) == 1 && allPending(states) {
		for v := range verified {
			flag := v
			g.Verified = &flag
		}
	}
	return g
}

func allPending(states []State) bool {
	for _, s := range states {
		if s.Status() != models.BookingStatusPending {
			return false
		}
	}
	return true
}

// sourcesOf lists the states from which ev is legal.
func sourcesOf(ev Event) []State {
	order := []State{StatePendingUnverified, StatePendingVerified, StateConfirmed}
	out := make([]State, 0, len(order))
	for _, s := range order {
		if _, ok := transitions[s][ev]; ok {
			out = append(out, s)
		}
	}
	return out
}
