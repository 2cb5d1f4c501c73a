package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/cache"
	"barber-booking/internal/catalog"
	"barber-booking/internal/config"
	"barber-booking/internal/db"
	"barber-booking/internal/logging"
	"barber-booking/internal/models"
	"barber-booking/internal/staff"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedUser struct {
	Username    string
	Email       string
	Role        string
	PasswordEnv string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	services := []catalog.ServiceInput{
		{Name: "Tuns", Description: "Tuns clasic cu foarfeca si masina.", Duration: 30, Price: 50},
		{Name: "Barba", Description: "Aranjare barba si contur cu briciul.", Duration: 30, Price: 35},
		{Name: "Tuns + Barba", Description: "Pachet complet tuns si barba.", Duration: 60, Price: 80},
		{Name: "Tuns copii", Description: "Pentru copii sub 12 ani.", Duration: 30, Price: 40},
		{Name: "Ras traditional", Description: "Ras cu prosop cald si brici.", Duration: 45, Price: 55},
	}

	catalogSvc := catalog.NewService(catalog.NewRepository(cols.Services), cache.NewNoop(), 0, cfg.Timezone, logging.Discard())
	for _, in := range services {
		if _, err := catalogSvc.Create(ctx, in); err != nil {
			if errors.Is(err, catalog.ErrDuplicateName) {
				log.Printf("seed service: %s exists, skipping", in.Name)
				continue
			}
			log.Fatalf("seed error for %s: %v", in.Name, err)
		}
	}

	users := []seedUser{
		{
			Username:    envOrDefault("ADMIN_USER", "admin"),
			Email:       envOrDefault("ADMIN_EMAIL", ""),
			Role:        models.RoleAdmin,
			PasswordEnv: "ADMIN_PASSWORD",
		},
		{
			Username:    envOrDefault("STAFF_USER", "barber"),
			Email:       envOrDefault("STAFF_EMAIL", ""),
			Role:        models.RoleStaff,
			PasswordEnv: "STAFF_PASSWORD",
		},
	}

	for _, u := range users {
		password := os.Getenv(u.PasswordEnv)
		if password == "" {
			log.Printf("seed user: %s missing, skipping (%s)", u.Username, u.PasswordEnv)
			continue
		}
		if err := seedUserAccount(ctx, cols, u, password, cfg.Timezone); err != nil {
			log.Fatalf("seed user error for %s: %v", u.Username, err)
		}
	}

	count, err := staff.NewRepository(cols.Users).Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("seed completed (%d staff accounts)", count)
}

// seedUserAccount upserts by username so rerunning the seed resets the
// password from the environment.
func seedUserAccount(ctx context.Context, cols *db.Collections, u seedUser, password string, loc *time.Location) error {
	username := strings.ToLower(strings.TrimSpace(u.Username))
	if username == "" {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	set := bson.M{
		"passwordHash": hash,
		"role":         u.Role,
		"updatedAt":    now,
	}
	if u.Email != "" {
		set["email"] = u.Email
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"username":  username,
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"username": username}, update, options.Update().SetUpsert(true))
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
