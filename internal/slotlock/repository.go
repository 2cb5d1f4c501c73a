package slotlock

import (
	"context"
	"errors"
	"time"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Key identifies the slot a lock claims.
type Key struct {
	Date      string
	Time      string
	ServiceID int
}

type Repository interface {
	// Insert must fail with ErrConflict when a lock for the same key exists.
	Insert(ctx context.Context, lock models.SlotLock) error
	Find(ctx context.Context, key Key) (models.SlotLock, error)
	DeleteExpiredKey(ctx context.Context, key Key, now time.Time) (int64, error)
	Delete(ctx context.Context, key Key, holder string) (int64, error)
	ListActive(ctx context.Context, date string, now time.Time) ([]models.SlotLock, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func keyFilter(key Key) bson.M {
	return bson.M{"date": key.Date, "time": key.Time, "serviceId": key.ServiceID}
}

func (r *MongoRepository) Insert(ctx context.Context, lock models.SlotLock) error {
	_, err := r.col.InsertOne(ctx, lock)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *MongoRepository) Find(ctx context.Context, key Key) (models.SlotLock, error) {
	var lock models.SlotLock
	if err := r.col.FindOne(ctx, keyFilter(key)).Decode(&lock); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.SlotLock{}, ErrNotFound
		}
		return models.SlotLock{}, err
	}
	return lock, nil
}

func (r *MongoRepository) DeleteExpiredKey(ctx context.Context, key Key, now time.Time) (int64, error) {
	filter := keyFilter(key)
	filter["expiresAt"] = bson.M{"$lte": now}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) Delete(ctx context.Context, key Key, holder string) (int64, error) {
	filter := keyFilter(key)
	filter["holder"] = holder
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) ListActive(ctx context.Context, date string, now time.Time) ([]models.SlotLock, error) {
	filter := bson.M{"date": date, "expiresAt": bson.M{"$gt": now}}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.SlotLock, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ Repository = (*MongoRepository)(nil)
