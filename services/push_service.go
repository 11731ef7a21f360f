package services

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"pushtrack/models"
)

// ErrProviderDisabled is returned by the disabled provider for every
// send attempt when the service runs without push credentials.
var ErrProviderDisabled = errors.New("push provider not configured")

// FCMPushService delivers messages through Firebase Cloud Messaging,
// one send per device token.
type FCMPushService struct {
	client *messaging.Client
}

// NewFCMPushService initializes a Firebase app from a service-account
// credentials file and builds the messaging client.
func NewFCMPushService(credentialsFile string) (*FCMPushService, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM client: %w", err)
	}

	return &FCMPushService{client: client}, nil
}

// Send delivers one message to one device token. The message data block
// carries the notification id and send context so the receiving device
// can echo them back in delivery events. mutable-content lets the iOS
// client intercept the push and report delivery.
func (ps *FCMPushService) Send(ctx context.Context, token string, message models.PushMessage) (string, error) {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: message.Title,
			Body:  message.Body,
		},
		Data: message.Data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					MutableContent: true,
				},
			},
		},
	}

	messageID, err := ps.client.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// DisabledPushService stands in for FCM when no credentials are
// configured. The service still starts and records metrics; every send
// attempt fails with ErrProviderDisabled.
type DisabledPushService struct{}

// NewDisabledPushService creates the degraded-mode provider.
func NewDisabledPushService() *DisabledPushService {
	return &DisabledPushService{}
}

func (ps *DisabledPushService) Send(_ context.Context, token string, _ models.PushMessage) (string, error) {
	logrus.Warnf("Push provider disabled, dropping message for token %s", token)
	return "", ErrProviderDisabled
}
