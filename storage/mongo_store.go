package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pushtrack/models"
)

const (
	notificationsCollection = "notifications"
	metricsCollection       = "metrics"
)

// MongoStore persists records in MongoDB. Metric updates go through the
// server's atomic findOneAndUpdate, so concurrent reconciliation events
// for the same key cannot lose writes.
type MongoStore struct {
	notifications *mongo.Collection
	metrics       *mongo.Collection
	disconnect    func(ctx context.Context) error
}

// NewMongoStore wraps an already-connected database. The disconnect
// callback is invoked by Close; pass nil when the caller owns the client
// lifecycle.
func NewMongoStore(db *mongo.Database, disconnect func(ctx context.Context) error) *MongoStore {
	return &MongoStore{
		notifications: db.Collection(notificationsCollection),
		metrics:       db.Collection(metricsCollection),
		disconnect:    disconnect,
	}
}

func (ms *MongoStore) AppendNotification(ctx context.Context, notification *models.Notification) error {
	if _, err := ms.notifications.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (ms *MongoStore) GetNotificationByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	err := ms.notifications.FindOne(ctx, bson.M{"id": id}).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &notification, nil
}

func (ms *MongoStore) AppendMetric(ctx context.Context, metric *models.Metric) error {
	if _, err := ms.metrics.InsertOne(ctx, metric); err != nil {
		return fmt.Errorf("failed to insert metric: %w", err)
	}
	return nil
}

func (ms *MongoStore) GetMetricByNotificationAndToken(ctx context.Context, notificationID, token string) (*models.Metric, error) {
	var metric models.Metric
	filter := bson.M{"notification_id": notificationID, "token": token}
	err := ms.metrics.FindOne(ctx, filter).Decode(&metric)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metric: %w", err)
	}
	return &metric, nil
}

func (ms *MongoStore) ListMetricsByNotification(ctx context.Context, notificationID string) ([]models.Metric, error) {
	cursor, err := ms.metrics.Find(ctx, bson.M{"notification_id": notificationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer cursor.Close(ctx)

	metrics := []models.Metric{}
	if err := cursor.All(ctx, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return metrics, nil
}

func (ms *MongoStore) UpdateMetric(ctx context.Context, notificationID, token string, update MetricUpdate) (*models.Metric, error) {
	set := bson.M{}
	if update.Delivered != nil {
		set["delivered"] = *update.Delivered
	}
	if update.DeliveredAt != nil {
		set["delivered_at"] = *update.DeliveredAt
	}
	if update.Opened != nil {
		set["opened"] = *update.Opened
	}
	if update.OpenedAt != nil {
		set["opened_at"] = *update.OpenedAt
	}
	if update.SendContext != nil {
		set["send_context"] = *update.SendContext
	}
	if update.SendContextID != nil {
		set["send_context_id"] = *update.SendContextID
	}

	filter := bson.M{"notification_id": notificationID, "token": token}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var metric models.Metric
	err := ms.metrics.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&metric)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update metric: %w", err)
	}
	return &metric, nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	if ms.disconnect == nil {
		return nil
	}
	return ms.disconnect(ctx)
}
