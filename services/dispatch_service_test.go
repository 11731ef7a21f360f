package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pushtrack/models"
	"pushtrack/storage"
	"pushtrack/utils"
)

// stubProvider accepts every token except the ones listed in reject.
// It records the messages it was handed, keyed by token.
type stubProvider struct {
	mu       sync.Mutex
	reject   map[string]error
	messages map[string]models.PushMessage
}

func newStubProvider(reject map[string]error) *stubProvider {
	return &stubProvider{
		reject:   reject,
		messages: make(map[string]models.PushMessage),
	}
}

func (sp *stubProvider) Send(_ context.Context, token string, message models.PushMessage) (string, error) {
	sp.mu.Lock()
	sp.messages[token] = message
	sp.mu.Unlock()

	if err, ok := sp.reject[token]; ok {
		return "", err
	}
	return "fcm-" + token, nil
}

func newTestDispatchService(t *testing.T, provider *stubProvider) (*DispatchService, storage.Store) {
	t.Helper()
	store := storage.NewFileStore(t.TempDir())
	return NewDispatchService(store, provider), store
}

func TestSendFanOutIsolatesFailures(t *testing.T) {
	provider := newStubProvider(map[string]error{
		"b": errors.New("requested entity was not found"),
	})
	ds, store := newTestDispatchService(t, provider)
	ctx := context.Background()

	notificationID, summary, results, err := ds.Send(ctx, models.SendRequest{
		Tokens: []string{"a", "b"},
		Title:  "Hello",
		Body:   "World",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if summary.Total != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Token != "a" || !results[0].Success {
		t.Errorf("expected token a to succeed: %+v", results[0])
	}
	if results[1].Token != "b" || results[1].Success || results[1].Error == "" {
		t.Errorf("expected token b to fail with an error message: %+v", results[1])
	}

	metrics, err := store.ListMetricsByNotification(ctx, notificationID)
	if err != nil {
		t.Fatalf("listing metrics failed: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected one metric per token, got %d", len(metrics))
	}
	byToken := map[string]models.Metric{}
	for _, m := range metrics {
		if m.NotificationID != notificationID {
			t.Errorf("metric carries wrong notification id: %+v", m)
		}
		byToken[m.Token] = m
	}
	// Provider acceptance counts as delivered.
	if !byToken["a"].Delivered || byToken["a"].DeliveredAt == nil {
		t.Errorf("accepted token should be delivered: %+v", byToken["a"])
	}
	if byToken["b"].Delivered || byToken["b"].Error == "" {
		t.Errorf("rejected token should carry the provider error: %+v", byToken["b"])
	}
}

func TestSendPersistsNotification(t *testing.T) {
	ds, store := newTestDispatchService(t, newStubProvider(nil))
	ctx := context.Background()

	notificationID, _, _, err := ds.Send(ctx, models.SendRequest{
		Tokens: []string{"a", "b", "c"},
		Title:  "Title",
		Body:   "Body",
		Data:   map[string]string{"deep_link": "app://offers"},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	notification, err := store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		t.Fatalf("notification not persisted: %v", err)
	}
	if notification.TokensCount != 3 {
		t.Errorf("expected tokens_count 3, got %d", notification.TokensCount)
	}
	if notification.Data["deep_link"] != "app://offers" {
		t.Errorf("data not persisted: %+v", notification.Data)
	}
}

func TestSendEmbedsReconciliationFieldsInPayload(t *testing.T) {
	provider := newStubProvider(nil)
	ds, _ := newTestDispatchService(t, provider)

	notificationID, _, _, err := ds.Send(context.Background(), models.SendRequest{
		Tokens: []string{"a"},
		Title:  "Title",
		Body:   "Body",
		Data:   map[string]string{"send_context": "campaign", "send_context_id": "c-9"},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	message := provider.messages["a"]
	if message.Data["notification_id"] != notificationID {
		t.Errorf("payload must carry the notification id, got %q", message.Data["notification_id"])
	}
	if message.Data["send_context"] != "campaign" || message.Data["send_context_id"] != "c-9" {
		t.Errorf("payload must carry the send context, got %+v", message.Data)
	}
}

func TestSendDefaultsSendContext(t *testing.T) {
	ds, store := newTestDispatchService(t, newStubProvider(nil))
	ctx := context.Background()

	notificationID, _, _, err := ds.Send(ctx, models.SendRequest{
		Tokens: []string{"a"},
		Title:  "Title",
		Body:   "Body",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	metric, err := store.GetMetricByNotificationAndToken(ctx, notificationID, "a")
	if err != nil {
		t.Fatalf("metric not persisted: %v", err)
	}
	if metric.SendContext != models.DefaultSendContext {
		t.Errorf("expected default send_context, got %q", metric.SendContext)
	}
}

func TestSendRejectsMissingFields(t *testing.T) {
	ds, store := newTestDispatchService(t, newStubProvider(nil))
	ctx := context.Background()

	cases := []models.SendRequest{
		{Title: "t", Body: "b"},
		{Tokens: []string{"a"}, Body: "b"},
		{Tokens: []string{"a"}, Title: "t"},
	}
	for _, req := range cases {
		_, _, _, err := ds.Send(ctx, req)
		if err == nil {
			t.Errorf("expected validation error for %+v", req)
			continue
		}
		serviceErr, ok := utils.GetServiceError(err)
		if !ok || serviceErr.Code != utils.ErrCodeValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	}

	metrics, err := store.ListMetricsByNotification(ctx, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(metrics) != 0 {
		t.Errorf("rejected requests must not write metrics, found %d", len(metrics))
	}
}

func TestSendWithDisabledProvider(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	ds := NewDispatchService(store, NewDisabledPushService())
	ctx := context.Background()

	notificationID, summary, _, err := ds.Send(ctx, models.SendRequest{
		Tokens: []string{"a", "b"},
		Title:  "Title",
		Body:   "Body",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if summary.Succeeded != 0 || summary.Failed != 2 {
		t.Errorf("degraded mode should fail every token: %+v", summary)
	}

	metrics, err := store.ListMetricsByNotification(ctx, notificationID)
	if err != nil {
		t.Fatalf("listing metrics failed: %v", err)
	}
	if len(metrics) != 2 {
		t.Errorf("metrics must still be recorded in degraded mode, got %d", len(metrics))
	}
}
