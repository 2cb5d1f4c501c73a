package booking

import (
	"context"
	"errors"
	"time"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Guard is the precondition a conditional update requires of the stored
// booking. Empty fields are not checked.
type Guard struct {
	Statuses []string
	Verified *bool
}

// Patch lists the fields a transition writes.
type Patch struct {
	Status           string
	Verified         *bool
	VerificationCode *string
	EmailSentAt      *time.Time
	Notes            string
	HandledBy        string
	VerifiedAt       *time.Time
	ConfirmedAt      *time.Time
	DeclinedAt       *time.Time
	CancelledAt      *time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

type ListFilter struct {
	Status   string
	Date     string
	Verified *bool
}

type Repository interface {
	Insert(ctx context.Context, b models.Booking) error
	GetByID(ctx context.Context, id string) (models.Booking, error)
	Delete(ctx context.Context, id string) error
	// DeleteWhere removes the booking only if it still satisfies guard, with
	// the same errors as UpdateWhere.
	DeleteWhere(ctx context.Context, id string, guard Guard) error
	// UpdateWhere applies patch only if the stored booking satisfies guard.
	// It returns ErrNotFound when the booking does not exist and
	// ErrStateChanged when it exists but no longer matches.
	UpdateWhere(ctx context.Context, id string, guard Guard, patch Patch) (models.Booking, error)
	ActiveOnDate(ctx context.Context, date string) ([]models.Booking, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Booking, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	ListPendingVerified(ctx context.Context) ([]models.Booking, error)
	ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	ListDeclinedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, b models.Booking) error {
	_, err := r.col.InsertOne(ctx, b)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	var b models.Booking
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Booking{}, ErrNotFound
		}
		return models.Booking{}, err
	}
	return b, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteWhere(ctx context.Context, id string, guard Guard) error {
	res, err := r.col.DeleteOne(ctx, guardFilter(id, guard))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return r.missReason(ctx, id)
	}
	return nil
}

func (r *MongoRepository) UpdateWhere(ctx context.Context, id string, guard Guard, patch Patch) (models.Booking, error) {
	filter := guardFilter(id, guard)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := r.col.FindOneAndUpdate(ctx, filter, patchToBSON(patch), opts).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, err
	}
	return models.Booking{}, r.missReason(ctx, id)
}

func guardFilter(id string, guard Guard) bson.M {
	filter := bson.M{"_id": id}
	if len(guard.Statuses) > 0 {
		filter["status"] = bson.M{"$in": guard.Statuses}
	}
	if guard.Verified != nil {
		filter["verified"] = *guard.Verified
	}
	return filter
}

// missReason tells a missing booking apart from one whose guard no longer holds.
func (r *MongoRepository) missReason(ctx context.Context, id string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStateChanged
}

func patchToBSON(p Patch) bson.M {
	set := bson.M{"updatedAt": p.UpdatedAt}
	unset := bson.M{}
	update := bson.M{}

	if p.Status != "" {
		set["status"] = p.Status
	}
	if p.Verified != nil {
		set["verified"] = *p.Verified
	}
	if p.VerificationCode != nil {
		if *p.VerificationCode == "" {
			unset["verificationCode"] = ""
		} else {
			set["verificationCode"] = *p.VerificationCode
		}
	}
	if p.EmailSentAt != nil {
		set["lastEmailSentAt"] = *p.EmailSentAt
		update["$inc"] = bson.M{"emailSendCount": 1}
	}
	if p.Notes != "" {
		set["notes"] = p.Notes
	}
	if p.HandledBy != "" {
		set["handledBy"] = p.HandledBy
	}
	for field, value := range map[string]*time.Time{
		"verifiedAt":  p.VerifiedAt,
		"confirmedAt": p.ConfirmedAt,
		"declinedAt":  p.DeclinedAt,
		"cancelledAt": p.CancelledAt,
		"completedAt": p.CompletedAt,
	} {
		if value != nil {
			set[field] = *value
		}
	}

	update["$set"] = set
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Booking, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) ActiveOnDate(ctx context.Context, date string) ([]models.Booking, error) {
	filter := bson.M{
		"date":   date,
		"status": bson.M{"$in": []string{models.BookingStatusPending, models.BookingStatusConfirmed}},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Verified != nil {
		query["verified"] = *filter.Verified
	}
	return query
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, r.filterToBSON(filter), opts)
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) ListPendingVerified(ctx context.Context) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"status": models.BookingStatusPending, "verified": true}, options.Find())
}

func (r *MongoRepository) ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status":    models.BookingStatusPending,
		"verified":  false,
		"createdAt": bson.M{"$lt": cutoff},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *MongoRepository) ListDeclinedBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status": models.BookingStatusDeclined,
		"$or": bson.A{
			bson.M{"declinedAt": bson.M{"$lt": cutoff}},
			bson.M{"declinedAt": bson.M{"$exists": false}, "createdAt": bson.M{"$lt": cutoff}},
		},
	}
	return r.find(ctx, filter, options.Find())
}

var _ Repository = (*MongoRepository)(nil)
