package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushtrack/interfaces"
	"pushtrack/models"
	"pushtrack/storage"
	"pushtrack/utils"
)

// DispatchService turns one send request into one notification record
// plus one provider send and one provisional metric per token.
//
// Delivered policy: provider acceptance counts as delivered. The metric
// written for an accepted send carries delivered=true immediately;
// client-reported "delivered" events then only refresh the timestamp.
// A rejected send leaves delivered=false with the provider error
// recorded on the metric.
type DispatchService struct {
	store    storage.Store
	provider interfaces.PushProvider
}

// NewDispatchService creates a dispatch service.
func NewDispatchService(store storage.Store, provider interfaces.PushProvider) *DispatchService {
	return &DispatchService{
		store:    store,
		provider: provider,
	}
}

// Send persists the notification, fans out one provider send per token
// with no cap on width, waits for every attempt to settle and returns
// the aggregated summary. A provider failure for one token never aborts
// the others and never fails the request as a whole.
func (ds *DispatchService) Send(ctx context.Context, req models.SendRequest) (string, models.SendSummary, []models.SendResult, error) {
	if len(req.Tokens) == 0 || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return "", models.SendSummary{}, nil, utils.NewValidationError("tokens, title and body are required")
	}

	notification := &models.Notification{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Body:        req.Body,
		Data:        req.Data,
		TokensCount: len(req.Tokens),
		CreatedAt:   time.Now().UTC(),
	}
	if notification.Data == nil {
		notification.Data = map[string]string{}
	}

	if err := ds.store.AppendNotification(ctx, notification); err != nil {
		return "", models.SendSummary{}, nil, utils.NewStorageError("failed to persist notification", err)
	}

	sendContext := req.Data["send_context"]
	if sendContext == "" {
		sendContext = models.DefaultSendContext
	}
	sendContextID := req.Data["send_context_id"]

	message := ds.buildMessage(notification, sendContext, sendContextID)

	results := make([]models.SendResult, len(req.Tokens))
	var wg sync.WaitGroup
	for i, token := range req.Tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			results[i] = ds.sendToToken(ctx, notification.ID, token, sendContext, sendContextID, message)
		}(i, token)
	}
	wg.Wait()

	summary := models.SendSummary{Total: len(req.Tokens)}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"total":           summary.Total,
		"succeeded":       summary.Succeeded,
		"failed":          summary.Failed,
	}).Info("Notification dispatched")

	return notification.ID, summary, results, nil
}

// buildMessage assembles the outbound payload shared by every token.
// The data block is what client devices echo back in delivery events.
func (ds *DispatchService) buildMessage(notification *models.Notification, sendContext, sendContextID string) models.PushMessage {
	data := make(map[string]string, len(notification.Data)+3)
	for k, v := range notification.Data {
		data[k] = v
	}
	data["notification_id"] = notification.ID
	data["send_context"] = sendContext
	if sendContextID != "" {
		data["send_context_id"] = sendContextID
	}

	return models.PushMessage{
		Title: notification.Title,
		Body:  notification.Body,
		Data:  data,
	}
}

// sendToToken performs one provider attempt and records the provisional
// metric for it. Failures are captured as values in the result, never
// propagated.
func (ds *DispatchService) sendToToken(ctx context.Context, notificationID, token, sendContext, sendContextID string, message models.PushMessage) models.SendResult {
	metric := &models.Metric{
		ID:             uuid.New().String(),
		NotificationID: notificationID,
		Token:          token,
		SendContext:    sendContext,
		SendContextID:  sendContextID,
	}

	result := models.SendResult{Token: token}

	_, sendErr := ds.provider.Send(ctx, token, message)
	if sendErr != nil {
		logrus.Warnf("Failed to send to token %s: %v", token, sendErr)
		metric.Error = sendErr.Error()
		result.Error = sendErr.Error()
	} else {
		now := time.Now().UTC()
		metric.Delivered = true
		metric.DeliveredAt = &now
		result.Success = true
	}

	if err := ds.store.AppendMetric(ctx, metric); err != nil {
		logrus.Errorf("Failed to record metric for token %s: %v", token, err)
		if result.Success {
			result.Success = false
			result.Error = "failed to record delivery metric: " + err.Error()
		}
	}

	return result
}
