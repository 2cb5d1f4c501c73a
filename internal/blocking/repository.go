package blocking

import (
	"context"
	"errors"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByDate(ctx context.Context, date string) (models.BlockedDate, error)
	// Save replaces the record for bd.Date, inserting it when absent.
	Save(ctx context.Context, bd models.BlockedDate) (models.BlockedDate, error)
	List(ctx context.Context, fromDate string) ([]models.BlockedDate, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByDate(ctx context.Context, date string) error
	DeleteBefore(ctx context.Context, date string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByDate(ctx context.Context, date string) (models.BlockedDate, error) {
	var bd models.BlockedDate
	if err := r.col.FindOne(ctx, bson.M{"date": date}).Decode(&bd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.BlockedDate{}, ErrNotFound
		}
		return models.BlockedDate{}, err
	}
	return bd, nil
}

func (r *MongoRepository) Save(ctx context.Context, bd models.BlockedDate) (models.BlockedDate, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"isFullDayBlocked": bd.IsFullDayBlocked,
			"hours":            bd.Hours,
			"reason":           bd.Reason,
			"updatedBy":        bd.UpdatedBy,
			"updatedAt":        bd.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       bd.ID,
			"createdBy": bd.CreatedBy,
			"createdAt": bd.CreatedAt,
		},
	}

	var saved models.BlockedDate
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"date": bd.Date}, update, opts).Decode(&saved); err != nil {
		return models.BlockedDate{}, err
	}
	return saved, nil
}

func (r *MongoRepository) List(ctx context.Context, fromDate string) ([]models.BlockedDate, error) {
	filter := bson.M{}
	if fromDate != "" {
		filter["date"] = bson.M{"$gte": fromDate}
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.BlockedDate, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteByDate(ctx context.Context, date string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"date": date})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBefore removes records whose date sorts strictly before date.
// YYYY-MM-DD strings order the same as the dates they name.
func (r *MongoRepository) DeleteBefore(ctx context.Context, date string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": date}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

var _ Repository = (*MongoRepository)(nil)
