package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates the indexes the storefront relies on: unique user
// emails, one cart per user and order lookups by owner.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	if err := ensureIndex(db, logger, "users", mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}); err != nil {
		return err
	}

	if err := ensureIndex(db, logger, "carts", mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_unique").SetUnique(true),
	}); err != nil {
		return err
	}

	if err := ensureIndex(db, logger, "orders", mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("userId_createdAt"),
	}); err != nil {
		return err
	}

	return ensureIndex(db, logger, "products", mongo.IndexModel{
		Keys:    bson.D{{Key: "category", Value: 1}},
		Options: options.Index().SetName("category_index"),
	})
}

func ensureIndex(db *mongo.Database, logger *zap.Logger, collection string, model mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := ""
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}

	logger.Info("creating index", zap.String("collection", collection), zap.String("index", name))
	if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		logger.Error("index creation failed", zap.String("collection", collection), zap.String("index", name), zap.Error(err))
		return err
	}
	return nil
}
