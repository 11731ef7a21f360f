package models

import "time"

// SendResponse is the wire response of POST /send. Partial per-token
// failures still produce Success=true; only malformed input or an early
// storage failure yields an error envelope instead.
type SendResponse struct {
	Success        bool         `json:"success"`
	NotificationID string       `json:"notificationId"`
	Summary        SendSummary  `json:"summary"`
	Results        []SendResult `json:"results"`
}

// MetricEventResponse is the wire response of POST /metrics.
type MetricEventResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    *Metric `json:"data"`
}

// NotificationSummary is the notification block of an analytics response.
type NotificationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalyticsBlock holds the computed aggregates for one notification.
// Rates are pre-formatted percentage strings with two-decimal precision;
// a zero denominator formats as "0%".
type AnalyticsBlock struct {
	TotalSent    int    `json:"totalSent"`
	Delivered    int    `json:"delivered"`
	Opened       int    `json:"opened"`
	Failed       int    `json:"failed"`
	DeliveryRate string `json:"deliveryRate"`
	OpenRate     string `json:"openRate"`
}

// AnalyticsResponse is the wire response of GET /metrics/:message_id.
type AnalyticsResponse struct {
	Success      bool                `json:"success"`
	Notification NotificationSummary `json:"notification"`
	Metrics      AnalyticsBlock      `json:"metrics"`
	Details      []Metric            `json:"details"`
}

// ErrorBody is the flat error envelope shared by every failure response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the wire response of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
