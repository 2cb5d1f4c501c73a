package clients

import (
	"context"
	"errors"
	"time"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListFilter struct {
	BlockedOnly bool
}

type Repository interface {
	FindByEmail(ctx context.Context, email string) (models.Client, error)
	GetByID(ctx context.Context, id string) (models.Client, error)
	// Insert must fail with ErrDuplicate when the email already exists.
	Insert(ctx context.Context, c models.Client) error
	UpdateContact(ctx context.Context, id string, snapshot models.ClientSnapshot, now time.Time) error
	IncrementTotal(ctx context.Context, id string, now time.Time) error
	// DecrementTotal never takes the counter below zero.
	DecrementTotal(ctx context.Context, id string, now time.Time) error
	RecordCompletion(ctx context.Context, id string, now time.Time) error
	RecordEmail(ctx context.Context, email string, now time.Time) error
	SetBlocked(ctx context.Context, id string, blocked bool, reason, staffID string, now time.Time) (models.Client, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Client, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	IsPhoneBlocked(ctx context.Context, phone string) (bool, error)
}

type MongoRepository struct {
	col    *mongo.Collection
	phones *mongo.Collection
}

func NewRepository(col, phones *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, phones: phones}
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (models.Client, error) {
	var c models.Client
	if err := r.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Client{}, ErrNotFound
		}
		return models.Client{}, err
	}
	return c, nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (models.Client, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) Insert(ctx context.Context, c models.Client) error {
	_, err := r.col.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoRepository) update(ctx context.Context, filter bson.M, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) UpdateContact(ctx context.Context, id string, snapshot models.ClientSnapshot, now time.Time) error {
	return r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":        snapshot.Name,
		"phone":       snapshot.Phone,
		"countryCode": snapshot.CountryCode,
		"updatedAt":   now,
	}})
}

func (r *MongoRepository) IncrementTotal(ctx context.Context, id string, now time.Time) error {
	return r.update(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"totalBookings": 1},
		"$set": bson.M{"updatedAt": now},
	})
}

func (r *MongoRepository) DecrementTotal(ctx context.Context, id string, now time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "totalBookings": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"totalBookings": -1}, "$set": bson.M{"updatedAt": now}},
	)
	return err
}

func (r *MongoRepository) RecordCompletion(ctx context.Context, id string, now time.Time) error {
	return r.update(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"completedBookings": 1},
		"$set": bson.M{"lastVisit": now, "updatedAt": now},
	})
}

func (r *MongoRepository) RecordEmail(ctx context.Context, email string, now time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$inc": bson.M{"emailsSent": 1},
		"$set": bson.M{"lastEmailAt": now, "updatedAt": now},
	})
	return err
}

func (r *MongoRepository) SetBlocked(ctx context.Context, id string, blocked bool, reason, staffID string, now time.Time) (models.Client, error) {
	update := bson.M{
		"$set": bson.M{
			"isBlocked":   true,
			"blockReason": reason,
			"blockedAt":   now,
			"blockedBy":   staffID,
			"updatedAt":   now,
		},
	}
	if !blocked {
		update = bson.M{
			"$set":   bson.M{"isBlocked": false, "updatedAt": now},
			"$unset": bson.M{"blockReason": "", "blockedAt": "", "blockedBy": ""},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Client
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Client{}, ErrNotFound
		}
		return models.Client{}, err
	}
	return updated, nil
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.BlockedOnly {
		query["isBlocked"] = true
	}
	return query
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Client, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.col.Find(ctx, r.filterToBSON(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Client, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) IsPhoneBlocked(ctx context.Context, phone string) (bool, error) {
	if r.phones == nil || phone == "" {
		return false, nil
	}
	n, err := r.phones.CountDocuments(ctx, bson.M{"phone": phone}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ Repository = (*MongoRepository)(nil)
