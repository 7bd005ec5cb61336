package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fiber/responta/app/model"
	"fiber/responta/config"
)

const photoCollection = "aduan_photos"

// Migrate creates or updates every relational table and the MongoDB photo index.
func Migrate() error {
	if err := DB.AutoMigrate(
		&model.Role{},
		&model.Organization{},
		&model.Dinas{},
		&model.User{},
		&model.Aduan{},
		&model.AduanHistory{},
		&model.BlacklistedToken{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := Mongo.Collection(photoCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "aduanId", Value: 1}, {Key: "uploadedAt", Value: 1}},
		Options: options.Index().SetName("aduan_uploaded"),
	})
	if err != nil {
		return fmt.Errorf("photo index: %w", err)
	}

	config.Log.Info("Migration finished")
	return nil
}
