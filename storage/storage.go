package storage

import (
	"context"
	"errors"
	"time"

	"pushtrack/models"
)

// ErrNotFound is returned by lookups and updates when no record matches.
var ErrNotFound = errors.New("record not found")

// MetricUpdate is a partial Metric. Non-nil fields are shallow-merged
// into the stored record, field by field; nil fields are left untouched.
type MetricUpdate struct {
	Delivered     *bool
	DeliveredAt   *time.Time
	Opened        *bool
	OpenedAt      *time.Time
	SendContext   *string
	SendContextID *string
}

// Store is the persistence abstraction shared by dispatch and
// reconciliation. Two interchangeable backends implement it: an
// append-only flat-file log and MongoDB. The backend is selected once at
// startup, never at call sites.
//
// The store performs no uniqueness checks on append; callers own the
// (notification_id, token) natural key and must check before inserting.
type Store interface {
	AppendNotification(ctx context.Context, notification *models.Notification) error
	GetNotificationByID(ctx context.Context, id string) (*models.Notification, error)
	AppendMetric(ctx context.Context, metric *models.Metric) error
	GetMetricByNotificationAndToken(ctx context.Context, notificationID, token string) (*models.Metric, error)
	ListMetricsByNotification(ctx context.Context, notificationID string) ([]models.Metric, error)
	UpdateMetric(ctx context.Context, notificationID, token string, update MetricUpdate) (*models.Metric, error)
	Close(ctx context.Context) error
}

// applyMetricUpdate merges the non-nil fields of update into m.
func applyMetricUpdate(m *models.Metric, update MetricUpdate) {
	if update.Delivered != nil {
		m.Delivered = *update.Delivered
	}
	if update.DeliveredAt != nil {
		m.DeliveredAt = update.DeliveredAt
	}
	if update.Opened != nil {
		m.Opened = *update.Opened
	}
	if update.OpenedAt != nil {
		m.OpenedAt = update.OpenedAt
	}
	if update.SendContext != nil {
		m.SendContext = *update.SendContext
	}
	if update.SendContextID != nil {
		m.SendContextID = *update.SendContextID
	}
}
