package models

import "time"

// DefaultSendContext is applied when a send request or delivery event
// carries no explicit context tag.
const DefaultSendContext = "transactional"

// Notification is one logical push-send request targeting multiple
// recipients. Immutable after creation.
type Notification struct {
	ID          string            `json:"id" bson:"id"`
	Title       string            `json:"title" bson:"title"`
	Body        string            `json:"body" bson:"body"`
	Data        map[string]string `json:"data" bson:"data"`
	TokensCount int               `json:"tokens_count" bson:"tokens_count"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}

// Metric is the delivery/open tracking record for one
// (notification, recipient token) pair. At most one Metric exists per
// pair; the pair is the natural key used by every lookup and update.
type Metric struct {
	ID             string     `json:"id" bson:"id"`
	NotificationID string     `json:"notification_id" bson:"notification_id"`
	Token          string     `json:"token" bson:"token"`
	PersonID       string     `json:"person_id,omitempty" bson:"person_id,omitempty"`
	Delivered      bool       `json:"delivered" bson:"delivered"`
	DeliveredAt    *time.Time `json:"delivered_at" bson:"delivered_at"`
	Opened         bool       `json:"opened" bson:"opened"`
	OpenedAt       *time.Time `json:"opened_at" bson:"opened_at"`
	SendContext    string     `json:"send_context,omitempty" bson:"send_context,omitempty"`
	SendContextID  string     `json:"send_context_id,omitempty" bson:"send_context_id,omitempty"`
	Error          string     `json:"error,omitempty" bson:"error,omitempty"`
}

// PushMessage is the payload handed to the push provider for a single
// device token. Data is embedded in the outbound push so client devices
// can echo the notification id and context back in delivery events.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// SendRequest is the body of POST /send.
type SendRequest struct {
	Tokens []string          `json:"tokens" binding:"required,min=1,dive,required"`
	Title  string            `json:"title" binding:"required"`
	Body   string            `json:"body" binding:"required"`
	Data   map[string]string `json:"data"`
}

// Delivery event kinds reported by client devices.
const (
	EventDelivered = "delivered"
	EventOpened    = "opened"
)

// DeliveryEventRequest is the body of POST /metrics. Field pairs exist
// because two generations of clients report events: current ones send
// notificationId/token/event/timestamp, legacy ones message_id/person_id/
// status/ts. Normalize resolves the aliases.
type DeliveryEventRequest struct {
	NotificationID string `json:"notificationId"`
	MessageID      string `json:"message_id"`
	Token          string `json:"token"`
	PersonID       string `json:"person_id"`
	Event          string `json:"event"`
	Status         string `json:"status"`
	SendContext    string `json:"send_context"`
	SendContextID  string `json:"send_context_id"`
	Timestamp      string `json:"timestamp"`
	TS             string `json:"ts"`
}

// Normalize collapses the legacy field aliases, preferring the modern
// names when both are present. The raw timestamp is returned unparsed
// because a malformed value is a validation error owned by the caller.
func (r *DeliveryEventRequest) Normalize() (notificationID, token, event, rawTimestamp string) {
	notificationID = r.NotificationID
	if notificationID == "" {
		notificationID = r.MessageID
	}
	token = r.Token
	if token == "" {
		token = r.PersonID
	}
	event = r.Event
	if event == "" {
		event = r.Status
	}
	rawTimestamp = r.Timestamp
	if rawTimestamp == "" {
		rawTimestamp = r.TS
	}
	return notificationID, token, event, rawTimestamp
}

// DeliveryEvent is the normalized, validated form of a
// DeliveryEventRequest handed to the metrics service.
type DeliveryEvent struct {
	NotificationID string
	Token          string
	Event          string
	SendContext    string
	SendContextID  string
	Timestamp      time.Time
}

// SendResult is the per-token outcome of one dispatch fan-out.
type SendResult struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendSummary aggregates the per-token outcomes of one dispatch.
type SendSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
