package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushtrack/models"
	"pushtrack/storage"
	"pushtrack/utils"
)

// MetricsService merges client-reported delivery events into per-token
// metrics and computes per-notification analytics.
//
// Merges are monotonic: once delivered or opened is true it never
// reverts, and an "opened" event backfills delivery since an opened
// message was necessarily delivered first.
type MetricsService struct {
	store storage.Store
}

// NewMetricsService creates a metrics service.
func NewMetricsService(store storage.Store) *MetricsService {
	return &MetricsService{store: store}
}

// RecordEvent merges one delivery event into the metric for its
// (notification, token) pair. When no metric exists yet, one is created
// lazily with defaults; the notification may have been dispatched by a
// producer outside this service.
func (ms *MetricsService) RecordEvent(ctx context.Context, event models.DeliveryEvent) (*models.Metric, error) {
	if event.Event != models.EventDelivered && event.Event != models.EventOpened {
		return nil, utils.NewValidationError(fmt.Sprintf("Status must be either %q or %q", models.EventDelivered, models.EventOpened))
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	existing, err := ms.store.GetMetricByNotificationAndToken(ctx, event.NotificationID, event.Token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ms.createMetric(ctx, event, timestamp)
		}
		return nil, utils.NewStorageError("failed to look up metric", err)
	}

	update := ms.buildMergePatch(existing, event, timestamp)

	updated, err := ms.store.UpdateMetric(ctx, event.NotificationID, event.Token, update)
	if err != nil {
		return nil, utils.NewStorageError("failed to update metric", err)
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": event.NotificationID,
		"token":           event.Token,
		"event":           event.Event,
	}).Debug("Delivery event merged")

	return updated, nil
}

// buildMergePatch computes the partial update for one event against the
// existing record. Flags are only ever set, never cleared.
func (ms *MetricsService) buildMergePatch(existing *models.Metric, event models.DeliveryEvent, timestamp time.Time) storage.MetricUpdate {
	truth := true
	update := storage.MetricUpdate{}

	switch event.Event {
	case models.EventDelivered:
		update.Delivered = &truth
		update.DeliveredAt = &timestamp
	case models.EventOpened:
		update.Opened = &truth
		update.OpenedAt = &timestamp
		// An opened message was delivered even if no delivered event
		// ever arrived; backfill using the open timestamp.
		if !existing.Delivered {
			update.Delivered = &truth
			update.DeliveredAt = &timestamp
		}
	}

	if event.SendContext != "" {
		update.SendContext = &event.SendContext
	}
	if event.SendContextID != "" {
		update.SendContextID = &event.SendContextID
	}

	return update
}

// createMetric synthesizes the first metric for a pair that dispatch
// never recorded.
func (ms *MetricsService) createMetric(ctx context.Context, event models.DeliveryEvent, timestamp time.Time) (*models.Metric, error) {
	sendContext := event.SendContext
	if sendContext == "" {
		sendContext = models.DefaultSendContext
	}

	metric := &models.Metric{
		ID:             uuid.New().String(),
		NotificationID: event.NotificationID,
		Token:          event.Token,
		PersonID:       event.Token,
		Delivered:      true,
		DeliveredAt:    &timestamp,
		SendContext:    sendContext,
		SendContextID:  event.SendContextID,
	}
	if event.Event == models.EventOpened {
		metric.Opened = true
		metric.OpenedAt = &timestamp
	}

	if err := ms.store.AppendMetric(ctx, metric); err != nil {
		return nil, utils.NewStorageError("failed to insert metric", err)
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": event.NotificationID,
		"token":           event.Token,
		"event":           event.Event,
	}).Debug("Delivery event recorded for unknown pair")

	return metric, nil
}

// GetAnalytics returns the aggregate delivery/open figures for one
// notification plus the full per-token detail list.
func (ms *MetricsService) GetAnalytics(ctx context.Context, notificationID string) (*models.AnalyticsResponse, error) {
	notification, err := ms.store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, utils.NewNotFoundError("Notification not found")
		}
		return nil, utils.NewStorageError("failed to look up notification", err)
	}

	metrics, err := ms.store.ListMetricsByNotification(ctx, notificationID)
	if err != nil {
		return nil, utils.NewStorageError("failed to list metrics", err)
	}

	totalSent := notification.TokensCount
	delivered := 0
	opened := 0
	for _, m := range metrics {
		if m.Delivered {
			delivered++
		}
		if m.Opened {
			opened++
		}
	}

	return &models.AnalyticsResponse{
		Success: true,
		Notification: models.NotificationSummary{
			ID:        notification.ID,
			Title:     notification.Title,
			Body:      notification.Body,
			CreatedAt: notification.CreatedAt,
		},
		Metrics: models.AnalyticsBlock{
			TotalSent:    totalSent,
			Delivered:    delivered,
			Opened:       opened,
			Failed:       totalSent - delivered,
			DeliveryRate: formatRate(delivered, totalSent),
			OpenRate:     formatRate(opened, delivered),
		},
		Details: metrics,
	}, nil
}

// formatRate renders numerator/denominator as a two-decimal percentage
// string, guarding the zero denominator as a plain "0%".
func formatRate(numerator, denominator int) string {
	if denominator == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(numerator)/float64(denominator)*100)
}
