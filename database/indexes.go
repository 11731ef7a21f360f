package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the service relies on. The compound
// unique index on metrics enforces the (notification_id, token) natural
// key at the storage level; the application still checks before insert
// so the file backend behaves the same.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	notificationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	metricIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "notification_id", Value: 1},
				{Key: "token", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "notification_id", Value: 1}},
		},
	}
	if _, err := db.Collection("metrics").Indexes().CreateMany(ctx, metricIndexes); err != nil {
		return fmt.Errorf("failed to create metric indexes: %w", err)
	}

	logrus.Debug("MongoDB indexes ensured")
	return nil
}
