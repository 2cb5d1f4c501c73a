package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"barber-booking/internal/models"
	"barber-booking/internal/schedule"
	"barber-booking/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Kind distinguishes client-triggered verification emails from staff or
// system notifications. Only the former are subject to the per-booking cap
// and the minimum interval.
type Kind int

const (
	KindVerification Kind = iota
	KindNotification
)

const (
	ReasonDailyLimit   = "daily_limit"
	ReasonBookingLimit = "booking_limit"
	ReasonTooSoon      = "too_soon"
)

type Limits struct {
	DailyPerRecipient int
	PerBooking        int
	MinInterval       time.Duration
}

func DefaultLimits() Limits {
	return Limits{DailyPerRecipient: 10, PerBooking: 5, MinInterval: time.Minute}
}

type Decision struct {
	Allowed             bool          `json:"allowed"`
	Reason              string        `json:"reason,omitempty"`
	RetryAfter          time.Duration `json:"-"`
	RemainingToday      int           `json:"remainingToday"`
	RemainingForBooking int           `json:"remainingForBooking"`
}

type Repository interface {
	Count(ctx context.Context, email, day string) (int, error)
	Increment(ctx context.Context, email, day string, now, expiresAt time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Count(ctx context.Context, email, day string) (int, error) {
	var usage models.EmailUsage
	err := r.col.FindOne(ctx, bson.M{"email": email, "day": day}).Decode(&usage)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return usage.Count, nil
}

func (r *MongoRepository) Increment(ctx context.Context, email, day string, now, expiresAt time.Time) error {
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"expiresAt": expiresAt,
		},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"email": email, "day": day}, update, options.Update().SetUpsert(true))
	return err
}

// Guard answers whether an email may be sent now and records sends against
// the per-recipient daily counter.
type Guard struct {
	repo     Repository
	limits   Limits
	location *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func NewGuard(repo Repository, limits Limits, location *time.Location, log *slog.Logger) *Guard {
	return &Guard{
		repo:     repo,
		limits:   limits,
		location: location,
		now:      time.Now,
		log:      log.With(slog.String("component", "quota")),
	}
}

// WithClock replaces the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) Limits() Limits {
	return g.limits
}

// Check never mutates anything.
func (g *Guard) Check(ctx context.Context, email string, booking *models.Booking, kind Kind) (Decision, error) {
	now := g.now()
	email = utils.NormalizeEmail(email)

	sent, err := g.repo.Count(ctx, email, schedule.Today(g.location, now))
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:             true,
		RemainingToday:      max(g.limits.DailyPerRecipient-sent, 0),
		RemainingForBooking: g.limits.PerBooking,
	}
	if booking != nil {
		d.RemainingForBooking = max(g.limits.PerBooking-booking.EmailSendCount, 0)
	}

	if d.RemainingToday == 0 {
		d.Allowed = false
		d.Reason = ReasonDailyLimit
		d.RetryAfter = untilTomorrow(now, g.location)
		return d, nil
	}
	if kind != KindVerification || booking == nil {
		return d, nil
	}
	if d.RemainingForBooking == 0 {
		d.Allowed = false
		d.Reason = ReasonBookingLimit
		return d, nil
	}
	if booking.LastEmailSentAt != nil && g.limits.MinInterval > 0 {
		next := booking.LastEmailSentAt.Add(g.limits.MinInterval)
		if now.Before(next) {
			d.Allowed = false
			d.Reason = ReasonTooSoon
			d.RetryAfter = next.Sub(now)
		}
	}
	return d, nil
}

// Record counts one send for the recipient today. The record expires two
// days after the day it counts.
func (g *Guard) Record(ctx context.Context, email string) error {
	now := g.now()
	local := now.In(g.location)
	day := local.Format(schedule.DateLayout)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.location)
	return g.repo.Increment(ctx, utils.NormalizeEmail(email), day, now, dayStart.AddDate(0, 0, 2))
}

func untilTomorrow(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.Sub(local)
}
