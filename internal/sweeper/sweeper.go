package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"barber-booking/internal/booking"
	"barber-booking/internal/models"
	"barber-booking/internal/schedule"
)

var ErrAlreadyRunning = errors.New("cleanup already running")

const (
	PassExpiredPending    = "expired_pending"
	PassAbandoned         = "abandoned_unverified"
	PassStaleDeclined     = "stale_declined"
	PassExpiredBlocks     = "expired_blocked_dates"
	PassExpiredSlotLocks  = "expired_slot_locks"
	defaultInterval       = 5 * time.Minute
	defaultUnverifiedTTL  = 15 * time.Minute
	defaultDeclinedRetain = 7 * 24 * time.Hour
)

type BookingStore interface {
	ListPendingVerified(ctx context.Context) ([]models.Booking, error)
	ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	ListDeclinedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	// DeleteWhere removes a booking only while it still matches guard.
	DeleteWhere(ctx context.Context, id string, guard booking.Guard) error
}

type Expirer interface {
	AutoExpire(ctx context.Context, b models.Booking) (models.Booking, booking.EmailStatus, error)
}

type ClientCounters interface {
	DecrementTotal(ctx context.Context, clientID string) error
}

type BlockPruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type LockSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Deps struct {
	Bookings BookingStore
	Expirer  Expirer
	Clients  ClientCounters
	Blocks   BlockPruner
	Locks    LockSweeper
}

type Options struct {
	Interval          time.Duration
	UnverifiedTTL     time.Duration
	DeclinedRetention time.Duration
}

type PassResult struct {
	Name      string   `json:"name"`
	Processed int64    `json:"processed"`
	Skipped   int64    `json:"skipped,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

type Report struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Passes     []PassResult `json:"passes"`
}

// Total counts records changed across all passes.
func (r Report) Total() int64 {
	var n int64
	for _, p := range r.Passes {
		n += p.Processed
	}
	return n
}

// Sweeper reconciles state that nobody else will touch again: verified
// bookings whose time passed, bookings never verified, old declines, past
// blocked dates and expired slot locks. Every pass is independent; one
// failing does not stop the others. A pass only acts on records that are
// still in the state it looked for, so running it twice changes nothing the
// second time.
type Sweeper struct {
	deps     Deps
	opts     Options
	location *time.Location
	now      func() time.Time
	log      *slog.Logger

	running atomic.Bool
	mu      sync.Mutex
	last    *Report
}

func New(deps Deps, opts Options, location *time.Location, log *slog.Logger) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.UnverifiedTTL <= 0 {
		opts.UnverifiedTTL = defaultUnverifiedTTL
	}
	if opts.DeclinedRetention <= 0 {
		opts.DeclinedRetention = defaultDeclinedRetain
	}
	return &Sweeper{
		deps:     deps,
		opts:     opts,
		location: location,
		now:      time.Now,
		log:      log.With(slog.String("component", "sweeper")),
	}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Interval is the time between scheduled runs.
func (s *Sweeper) Interval() time.Duration {
	return s.opts.Interval
}

// Start runs one sweep immediately and then one per interval until ctx is
// done.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("sweeper start: ok", slog.Duration("interval", s.opts.Interval))
	go func() {
		s.runLogged(ctx)
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runLogged(ctx)
			}
		}
	}()
}

func (s *Sweeper) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		s.log.Error("sweeper run: failed", slog.String("error", err.Error()))
	}
}

// LastReport returns the report of the most recent completed run.
func (s *Sweeper) LastReport() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Run executes every pass once. Concurrent calls get ErrAlreadyRunning.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	report := Report{StartedAt: s.now()}
	passes := []struct {
		name string
		run  func(context.Context, time.Time, *PassResult) error
	}{
		{PassExpiredPending, s.expirePending},
		{PassAbandoned, s.deleteAbandoned},
		{PassStaleDeclined, s.deleteStaleDeclined},
		{PassExpiredBlocks, s.pruneBlocks},
		{PassExpiredSlotLocks, s.sweepLocks},
	}
	for _, p := range passes {
		result := PassResult{Name: p.name}
		if err := p.run(ctx, s.now(), &result); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
		if len(result.Errors) > 0 {
			s.log.Warn("sweeper pass: errors",
				slog.String("pass", p.name), slog.Int("count", len(result.Errors)))
		}
		report.Passes = append(report.Passes, result)
	}
	report.FinishedAt = s.now()

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	s.log.Info("sweeper run: ok",
		slog.Int64("processed", report.Total()),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *Sweeper) expirePending(ctx context.Context, now time.Time, res *PassResult) error {
	if s.deps.Bookings == nil || s.deps.Expirer == nil {
		return nil
	}
	items, err := s.deps.Bookings.ListPendingVerified(ctx)
	if err != nil {
		return err
	}
	for _, b := range items {
		at, err := schedule.ParseDateTime(b.Date, b.Time, s.location)
		if err != nil {
			res.Errors = append(res.Errors, b.ID+": "+err.Error())
			continue
		}
		if !at.Before(now) {
			continue
		}
		if _, _, err := s.deps.Expirer.AutoExpire(ctx, b); err != nil {
			if errors.Is(err, booking.ErrStateChanged) || errors.Is(err, booking.ErrNotFound) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, b.ID+": "+err.Error())
			continue
		}
		res.Processed++
	}
	return nil
}

func (s *Sweeper) deleteAbandoned(ctx context.Context, now time.Time, res *PassResult) error {
	if s.deps.Bookings == nil {
		return nil
	}
	items, err := s.deps.Bookings.ListUnverifiedBefore(ctx, now.Add(-s.opts.UnverifiedTTL))
	if err != nil {
		return err
	}
	unverified := false
	guard := booking.Guard{Statuses: []string{models.BookingStatusPending}, Verified: &unverified}
	for _, b := range items {
		if err := s.deps.Bookings.DeleteWhere(ctx, b.ID, guard); err != nil {
			if errors.Is(err, booking.ErrStateChanged) || errors.Is(err, booking.ErrNotFound) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, b.ID+": "+err.Error())
			continue
		}
		res.Processed++
		if s.deps.Clients != nil && b.ClientID != "" {
			if err := s.deps.Clients.DecrementTotal(ctx, b.ClientID); err != nil {
				res.Errors = append(res.Errors, b.ClientID+": "+err.Error())
			}
		}
	}
	return nil
}

func (s *Sweeper) deleteStaleDeclined(ctx context.Context, now time.Time, res *PassResult) error {
	if s.deps.Bookings == nil {
		return nil
	}
	items, err := s.deps.Bookings.ListDeclinedBefore(ctx, now.Add(-s.opts.DeclinedRetention))
	if err != nil {
		return err
	}
	guard := booking.Guard{Statuses: []string{models.BookingStatusDeclined}}
	for _, b := range items {
		if err := s.deps.Bookings.DeleteWhere(ctx, b.ID, guard); err != nil {
			if errors.Is(err, booking.ErrStateChanged) || errors.Is(err, booking.ErrNotFound) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, b.ID+": "+err.Error())
			continue
		}
		res.Processed++
	}
	return nil
}

func (s *Sweeper) pruneBlocks(ctx context.Context, now time.Time, res *PassResult) error {
	if s.deps.Blocks == nil {
		return nil
	}
	n, err := s.deps.Blocks.DeleteExpired(ctx, now)
	res.Processed = n
	return err
}

func (s *Sweeper) sweepLocks(ctx context.Context, _ time.Time, res *PassResult) error {
	if s.deps.Locks == nil {
		return nil
	}
	n, err := s.deps.Locks.Sweep(ctx)
	res.Processed = n
	return err
}
