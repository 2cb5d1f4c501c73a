package availability

import (
	"context"
	"log/slog"
	"time"

	"barber-booking/internal/blocking"
	"barber-booking/internal/models"
	"barber-booking/internal/schedule"
)

type Reason string

const (
	ReasonNone        Reason = ""
	ReasonClosed      Reason = "closed"
	ReasonBlocked     Reason = "blocked"
	ReasonPast        Reason = "past"
	ReasonFullyBooked Reason = "fully_booked"
)

const (
	messageClosed      = "The shop is closed on this day."
	messageBlocked     = "This date is not available for online booking."
	messagePastDate    = "This date has already passed."
	messagePastToday   = "There are no more slots left today."
	messageFullyBooked = "All slots are booked for this date. Please pick another day."
	messageTooLong     = "This service does not fit in the opening hours of this day."
)

type ServiceCatalog interface {
	Get(ctx context.Context, id int) (models.Service, error)
	Durations(ctx context.Context) (map[int]int, error)
}

type BookingSource interface {
	ActiveOnDate(ctx context.Context, date string) ([]models.Booking, error)
}

type LockSource interface {
	Active(ctx context.Context, date string) ([]models.SlotLock, error)
}

type BlockSource interface {
	ForDate(ctx context.Context, date string) (models.BlockedDate, bool, error)
}

type Query struct {
	Date      string
	ServiceID int
	// IgnoreHolder excludes locks held by this holder, so a client's own
	// claim does not hide the slot it is finalizing.
	IgnoreHolder string
}

type Result struct {
	Date      string   `json:"date"`
	ServiceID int      `json:"serviceId"`
	Duration  int      `json:"duration"`
	Slots     []string `json:"slots"`
	Reason    Reason   `json:"reason,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Contains reports whether timeStr is among the available slots.
func (r Result) Contains(timeStr string) bool {
	for _, s := range r.Slots {
		if s == timeStr {
			return true
		}
	}
	return false
}

// Calculator derives free slots from stored state only. It performs reads
// and nothing else, so repeated calls without writes agree.
type Calculator struct {
	catalog  ServiceCatalog
	bookings BookingSource
	locks    LockSource
	blocks   BlockSource
	location *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func NewCalculator(catalog ServiceCatalog, bookings BookingSource, locks LockSource, blocks BlockSource, location *time.Location, log *slog.Logger) *Calculator {
	return &Calculator{
		catalog:  catalog,
		bookings: bookings,
		locks:    locks,
		blocks:   blocks,
		location: location,
		now:      time.Now,
		log:      log.With(slog.String("component", "availability")),
	}
}

// WithClock replaces the time source.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

func (c *Calculator) Location() *time.Location {
	return c.location
}

// Compute lists the start times still bookable for the query's service on
// the query's date. An empty list carries a Reason and Message. Errors are
// reserved for bad input, unknown services and store failures.
func (c *Calculator) Compute(ctx context.Context, q Query) (Result, error) {
	now := c.now()
	result := Result{Date: q.Date, ServiceID: q.ServiceID, Slots: []string{}}

	date, err := schedule.ParseDate(q.Date, c.location)
	if err != nil {
		return result, err
	}

	svc, err := c.catalog.Get(ctx, q.ServiceID)
	if err != nil {
		return result, err
	}
	result.Duration = svc.Duration
	if !schedule.ValidDuration(svc.Duration) {
		c.log.Warn("availability compute: invalid service duration",
			slog.Int("service_id", svc.ID), slog.Int("duration", svc.Duration))
		return result, schedule.ErrInvalidDuration
	}

	if past, _ := schedule.IsDatePast(q.Date, c.location, now); past {
		return result.empty(ReasonPast, messagePastDate), nil
	}

	if _, open := schedule.DayWindow(date.Weekday()); !open {
		return result.empty(ReasonClosed, messageClosed), nil
	}

	block, blocked, err := c.blocks.ForDate(ctx, q.Date)
	if err != nil {
		return result, err
	}
	if blocked && block.IsFullDayBlocked {
		return result.empty(ReasonBlocked, blockMessage(block)), nil
	}

	candidates, err := schedule.GenerateSlotsWithDuration(q.Date, svc.Duration, c.location)
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		return result.empty(ReasonFullyBooked, messageTooLong), nil
	}

	occupied, err := c.occupied(ctx, q)
	if err != nil {
		return result, err
	}

	// the block may have changed while the other sources were read
	block, blocked, err = c.blocks.ForDate(ctx, q.Date)
	if err != nil {
		return result, err
	}
	if blocked && block.IsFullDayBlocked {
		return result.empty(ReasonBlocked, blockMessage(block)), nil
	}
	var blockedHours []schedule.Interval
	if blocked {
		blockedHours = blocking.Intervals(block)
	}

	today := schedule.IsToday(q.Date, c.location, now)
	var pastCount, blockedCount int
	for _, slot := range candidates {
		if today {
			past, err := schedule.IsSlotPast(q.Date, slot, c.location, now)
			if err != nil {
				return result, err
			}
			if past {
				pastCount++
				continue
			}
		}

		current, err := schedule.NewInterval(slot, svc.Duration)
		if err != nil {
			return result, err
		}
		if schedule.OverlapsAny(current, blockedHours) {
			blockedCount++
			continue
		}
		if schedule.OverlapsAny(current, occupied) {
			continue
		}
		result.Slots = append(result.Slots, slot)
	}

	if len(result.Slots) > 0 {
		return result, nil
	}
	switch {
	case pastCount == len(candidates):
		return result.empty(ReasonPast, messagePastToday), nil
	case blockedCount == len(candidates)-pastCount:
		return result.empty(ReasonBlocked, blockMessage(block)), nil
	default:
		return result.empty(ReasonFullyBooked, messageFullyBooked), nil
	}
}

// occupied collects the intervals taken by active locks and by pending or
// confirmed bookings. A lock blocks every service over the duration of the
// service it was taken for.
func (c *Calculator) occupied(ctx context.Context, q Query) ([]schedule.Interval, error) {
	durations, err := c.catalog.Durations(ctx)
	if err != nil {
		return nil, err
	}
	durationOf := func(serviceID, snapshot int) int {
		if snapshot > 0 {
			return snapshot
		}
		if d, ok := durations[serviceID]; ok && d > 0 {
			return d
		}
		return schedule.SlotMinutes
	}

	locks, err := c.locks.Active(ctx, q.Date)
	if err != nil {
		return nil, err
	}
	bookings, err := c.bookings.ActiveOnDate(ctx, q.Date)
	if err != nil {
		return nil, err
	}

	out := make([]schedule.Interval, 0, len(locks)+len(bookings))
	for _, l := range locks {
		if q.IgnoreHolder != "" && l.Holder == q.IgnoreHolder {
			continue
		}
		interval, err := schedule.NewInterval(l.Time, durationOf(l.ServiceID, 0))
		if err != nil {
			c.log.Warn("availability compute: skipping malformed lock", slog.String("time", l.Time))
			continue
		}
		out = append(out, interval)
	}
	for _, b := range bookings {
		if !b.Occupies() {
			continue
		}
		interval, err := schedule.NewInterval(b.Time, durationOf(b.ServiceID, b.Duration))
		if err != nil {
			c.log.Warn("availability compute: skipping malformed booking",
				slog.String("booking_id", b.ID), slog.String("time", b.Time))
			continue
		}
		out = append(out, interval)
	}
	return out, nil
}

func (r Result) empty(reason Reason, message string) Result {
	r.Slots = []string{}
	r.Reason = reason
	r.Message = message
	return r
}

func blockMessage(bd models.BlockedDate) string {
	if bd.Reason != "" {
		return bd.Reason
	}
	return messageBlocked
}
