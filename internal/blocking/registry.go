package blocking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"barber-booking/internal/models"
	"barber-booking/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound    = errors.New("blocked date not found")
	ErrPastDate    = errors.New("cannot block a date in the past")
	ErrNoHours     = errors.New("hours are required unless the full day is blocked")
	ErrInvalidHour = errors.New("blocked hours must be HH:MM on a 30 minute boundary")
)

// ConflictError lists the bookings a block would orphan.
type ConflictError struct {
	Date     string
	Bookings []models.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("blocking %s conflicts with %d active booking(s)", e.Date, len(e.Bookings))
}

type BookingFinder interface {
	ActiveOnDate(ctx context.Context, date string) ([]models.Booking, error)
}

type BlockRequest struct {
	Date    string   `json:"date" validate:"required,date"`
	FullDay bool     `json:"fullDay"`
	Hours   []string `json:"hours" validate:"omitempty,dive,clock"`
	Reason  string   `json:"reason" validate:"max=200"`
}

type UnblockRequest struct {
	Date  string   `json:"date" validate:"required,date"`
	Hours []string `json:"hours" validate:"required,min=1,dive,clock"`
}

// Registry owns the per-date administrative blocks.
type Registry struct {
	repo     Repository
	bookings BookingFinder
	location *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func NewRegistry(repo Repository, bookings BookingFinder, location *time.Location, log *slog.Logger) *Registry {
	return &Registry{
		repo:     repo,
		bookings: bookings,
		location: location,
		now:      time.Now,
		log:      log.With(slog.String("component", "blocking")),
	}
}

// WithClock replaces the time source.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) Block(ctx context.Context, req BlockRequest, staffID string) (models.BlockedDate, error) {
	past, err := schedule.IsDatePast(req.Date, r.location, r.now())
	if err != nil {
		return models.BlockedDate{}, err
	}
	if past {
		return models.BlockedDate{}, ErrPastDate
	}

	hours, err := normalizeHours(req.Hours)
	if err != nil {
		return models.BlockedDate{}, err
	}
	if !req.FullDay && len(hours) == 0 {
		return models.BlockedDate{}, ErrNoHours
	}

	existing, found, err := r.ForDate(ctx, req.Date)
	if err != nil {
		return models.BlockedDate{}, err
	}

	now := r.now().In(r.location)
	next := models.BlockedDate{
		ID:               primitive.NewObjectID().Hex(),
		Date:             req.Date,
		IsFullDayBlocked: req.FullDay,
		Hours:            hours,
		CreatedBy:        staffID,
		UpdatedBy:        staffID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if found {
		next.ID = existing.ID
		next.CreatedBy = existing.CreatedBy
		next.CreatedAt = existing.CreatedAt
		if existing.IsFullDayBlocked {
			next.IsFullDayBlocked = true
		} else if !req.FullDay {
			next.Hours, _ = normalizeHours(append(append([]string{}, existing.Hours...), hours...))
		}
	}
	if next.IsFullDayBlocked {
		next.Hours = []string{}
	}

	conflicts, err := r.conflicting(ctx, next)
	if err != nil {
		return models.BlockedDate{}, err
	}
	if len(conflicts) > 0 {
		r.log.Warn("blocking create: conflicts with bookings",
			slog.String("date", req.Date), slog.Int("bookings", len(conflicts)))
		return models.BlockedDate{}, &ConflictError{Date: req.Date, Bookings: conflicts}
	}

	next.Reason = strings.TrimSpace(req.Reason)
	if next.Reason == "" {
		next.Reason = defaultReason(next)
	}

	saved, err := r.repo.Save(ctx, next)
	if err != nil {
		return models.BlockedDate{}, err
	}
	r.log.Info("blocking create: ok",
		slog.String("date", saved.Date),
		slog.Bool("full_day", saved.IsFullDayBlocked),
		slog.Int("hours", len(saved.Hours)),
		slog.String("staff_id", staffID),
	)
	return saved, nil
}

// Unblock removes hours from a date's block. A full-day block is first
// expanded into the day's individual slots. The record is deleted when no
// hours remain; the returned bool reports that.
func (r *Registry) Unblock(ctx context.Context, req UnblockRequest, staffID string) (models.BlockedDate, bool, error) {
	remove, err := normalizeHours(req.Hours)
	if err != nil {
		return models.BlockedDate{}, false, err
	}
	existing, found, err := r.ForDate(ctx, req.Date)
	if err != nil {
		return models.BlockedDate{}, false, err
	}
	if !found {
		return models.BlockedDate{}, false, ErrNotFound
	}

	current := existing.Hours
	if existing.IsFullDayBlocked {
		current, err = dayCadence(req.Date, r.location)
		if err != nil {
			return models.BlockedDate{}, false, err
		}
	}

	drop := make(map[string]bool, len(remove))
	for _, h := range remove {
		drop[h] = true
	}
	kept := make([]string, 0, len(current))
	for _, h := range current {
		if !drop[h] {
			kept = append(kept, h)
		}
	}

	if len(kept) == 0 {
		if err := r.repo.DeleteByDate(ctx, req.Date); err != nil && !errors.Is(err, ErrNotFound) {
			return models.BlockedDate{}, false, err
		}
		r.log.Info("blocking unblock: record removed", slog.String("date", req.Date), slog.String("staff_id", staffID))
		return existing, true, nil
	}

	existing.IsFullDayBlocked = false
	existing.Hours = kept
	existing.UpdatedBy = staffID
	existing.UpdatedAt = r.now().In(r.location)
	if strings.HasPrefix(existing.Reason, autoReasonPrefix) || existing.Reason == fullDayReason {
		existing.Reason = defaultReason(existing)
	}
	saved, err := r.repo.Save(ctx, existing)
	if err != nil {
		return models.BlockedDate{}, false, err
	}
	r.log.Info("blocking unblock: ok", slog.String("date", req.Date), slog.Int("hours", len(saved.Hours)))
	return saved, false, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.DeleteByID(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	r.log.Info("blocking delete: ok", slog.String("blocked_date_id", id))
	return nil
}

// List returns blocks from today onward, or every stored block when
// includePast is set.
func (r *Registry) List(ctx context.Context, includePast bool) ([]models.BlockedDate, error) {
	from := schedule.Today(r.location, r.now())
	if includePast {
		from = ""
	}
	return r.repo.List(ctx, from)
}

func (r *Registry) ForDate(ctx context.Context, date string) (models.BlockedDate, bool, error) {
	bd, err := r.repo.GetByDate(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return models.BlockedDate{}, false, nil
	}
	if err != nil {
		return models.BlockedDate{}, false, err
	}
	return bd, true, nil
}

// DeleteExpired removes records dated more than one day before now.
func (r *Registry) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.In(r.location).AddDate(0, 0, -1).Format(schedule.DateLayout)
	return r.repo.DeleteBefore(ctx, cutoff)
}

func (r *Registry) conflicting(ctx context.Context, bd models.BlockedDate) ([]models.Booking, error) {
	if r.bookings == nil {
		return nil, nil
	}
	active, err := r.bookings.ActiveOnDate(ctx, bd.Date)
	if err != nil {
		return nil, err
	}
	if bd.IsFullDayBlocked {
		return active, nil
	}

	blocked := Intervals(bd)
	conflicts := make([]models.Booking, 0)
	for _, b := range active {
		duration := b.Duration
		if duration <= 0 {
			duration = schedule.SlotMinutes
		}
		interval, err := schedule.NewInterval(b.Time, duration)
		if err != nil {
			continue
		}
		if schedule.OverlapsAny(interval, blocked) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

// Intervals returns the occupied interval of each blocked hour. Each hour
// blocks one slot of schedule.SlotMinutes.
func Intervals(bd models.BlockedDate) []schedule.Interval {
	out := make([]schedule.Interval, 0, len(bd.Hours))
	for _, h := range bd.Hours {
		interval, err := schedule.NewInterval(h, schedule.SlotMinutes)
		if err != nil {
			continue
		}
		out = append(out, interval)
	}
	return out
}

const (
	fullDayReason    = "Closed all day"
	autoReasonPrefix = "Unavailable: "
)

func defaultReason(bd models.BlockedDate) string {
	if bd.IsFullDayBlocked {
		return fullDayReason
	}
	return autoReasonPrefix + strings.Join(bd.Hours, ", ")
}

func normalizeHours(hours []string) ([]string, error) {
	seen := make(map[string]bool, len(hours))
	out := make([]string, 0, len(hours))
	for _, h := range hours {
		h = strings.TrimSpace(h)
		if !schedule.OnCadence(h) {
			return nil, ErrInvalidHour
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Strings(out)
	return out, nil
}

func dayCadence(date string, loc *time.Location) ([]string, error) {
	return schedule.GenerateSlotsWithDuration(date, schedule.SlotMinutes, loc)
}
