package interfaces

import (
	"context"

	"pushtrack/models"
)

// PushProvider is the external push-delivery collaborator: one message,
// one destination token, success or a provider error. No retry or
// backoff happens on this side of the boundary.
type PushProvider interface {
	Send(ctx context.Context, token string, message models.PushMessage) (messageID string, err error)
}

// Dispatcher fans one send request out to every token and reports the
// aggregated outcome.
type Dispatcher interface {
	Send(ctx context.Context, req models.SendRequest) (notificationID string, summary models.SendSummary, results []models.SendResult, err error)
}

// MetricsRecorder merges client-reported delivery events into per-token
// metrics and answers aggregate analytics queries.
type MetricsRecorder interface {
	RecordEvent(ctx context.Context, event models.DeliveryEvent) (*models.Metric, error)
	GetAnalytics(ctx context.Context, notificationID string) (*models.AnalyticsResponse, error)
}
