package catalog

import (
	"context"
	"errors"

	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	List(ctx context.Context) ([]models.Service, error)
	GetByID(ctx context.Context, id int) (models.Service, error)
	NextID(ctx context.Context) (int, error)
	Create(ctx context.Context, svc models.Service) error
	Update(ctx context.Context, svc models.Service) (models.Service, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) List(ctx context.Context) ([]models.Service, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Service, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id int) (models.Service, error) {
	var svc models.Service
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Service{}, ErrServiceNotFound
		}
		return models.Service{}, err
	}
	return svc, nil
}

func (r *MongoRepository) NextID(ctx context.Context) (int, error) {
	var last models.Service
	err := r.col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.ID + 1, nil
}

func (r *MongoRepository) Create(ctx context.Context, svc models.Service) error {
	_, err := r.col.InsertOne(ctx, svc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *MongoRepository) Update(ctx context.Context, svc models.Service) (models.Service, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":        svc.Name,
			"slug":        svc.Slug,
			"description": svc.Description,
			"duration":    svc.Duration,
			"price":       svc.Price,
			"updatedAt":   svc.UpdatedAt,
		},
	}

	var updated models.Service
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": svc.ID}, update, opts).Decode(&updated)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Service{}, ErrServiceNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.Service{}, ErrDuplicateName
	case err != nil:
		return models.Service{}, err
	}
	return updated, nil
}

var _ Repository = (*MongoRepository)(nil)
