package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Services      *mongo.Collection
	Bookings      *mongo.Collection
	Clients       *mongo.Collection
	SlotLocks     *mongo.Collection
	BlockedDates  *mongo.Collection
	EmailUsage    *mongo.Collection
	Users         *mongo.Collection
	BlockedPhones *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Services:      db.Collection("services"),
		Bookings:      db.Collection("bookings"),
		Clients:       db.Collection("clients"),
		SlotLocks:     db.Collection("slot_locks"),
		BlockedDates:  db.Collection("blocked_dates"),
		EmailUsage:    db.Collection("email_usage"),
		Users:         db.Collection("users"),
		BlockedPhones: db.Collection("blocked_phones"),
	}

	return client, cols, nil
}

// EnsureIndexes creates the uniqueness constraints the booking flow relies on
// and the TTL indexes that let Mongo expire slot locks and email counters on
// its own.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := []struct {
		name    string
		col     *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{
			name: "services",
			col:  cols.Services,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			name: "slot_locks",
			col:  cols.SlotLocks,
			indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "serviceId", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{Keys: bson.D{{Key: "holder", Value: 1}}},
				{
					Keys:    bson.D{{Key: "expiresAt", Value: 1}},
					Options: options.Index().SetExpireAfterSeconds(0),
				},
			},
		},
		{
			name: "bookings",
			col:  cols.Bookings,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}}},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "verified", Value: 1}, {Key: "createdAt", Value: 1}}},
				{Keys: bson.D{{Key: "clientId", Value: 1}}},
			},
		},
		{
			name: "clients",
			col:  cols.Clients,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "isBlocked", Value: 1}}},
			},
		},
		{
			name: "blocked_dates",
			col:  cols.BlockedDates,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			name: "email_usage",
			col:  cols.EmailUsage,
			indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}, {Key: "day", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "expiresAt", Value: 1}},
					Options: options.Index().SetExpireAfterSeconds(0),
				},
			},
		},
		{
			name: "users",
			col:  cols.Users,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			name: "blocked_phones",
			col:  cols.BlockedPhones,
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
	}

	for _, spec := range specs {
		if _, err := spec.col.Indexes().CreateMany(indexTimeout, spec.indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", spec.name, err)
		}
	}

	return nil
}
