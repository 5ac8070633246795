package notification

import (
	"context"
	"fmt"

	"jepet/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Notifier delivers a push to every device of a customer.
type Notifier interface {
	Push(ctx context.Context, p models.Push) error
}

// Sender is the part of the FCM client the notifier uses.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// UserTopic is the FCM topic a customer's apps subscribe to.
func UserTopic(uid string) string {
	return "user_" + uid
}

// FCMNotifier sends pushes to the customer's topic.
type FCMNotifier struct {
	client Sender
	logger *zap.Logger
}

func NewFCMNotifier(client Sender, logger *zap.Logger) (*FCMNotifier, error) {
	if client == nil {
		return nil, fmt.Errorf("notification service initialization error: messaging client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMNotifier{client: client, logger: logger}, nil
}

func (n *FCMNotifier) Push(ctx context.Context, p models.Push) error {
	if p.UserID == "" {
		return fmt.Errorf("Push: user id is required")
	}
	msg := &messaging.Message{
		Topic: UserTopic(p.UserID),
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := n.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("Push: failed to send FCM message: %w", err)
	}
	n.logger.Debug("Push: message sent", zap.String("user_id", p.UserID), zap.String("message_id", id))
	return nil
}

// ReminderPush turns a queued reminder into the customer-facing push.
func ReminderPush(r models.ReminderPayload) models.Push {
	return models.Push{
		UserID: r.UserID,
		Title:  r.Title,
		Body:   r.Body,
		Data: map[string]string{
			"type":          "appointment_reminder",
			"appointmentId": r.AppointmentID,
			"fireDate":      r.FireDate,
		},
	}
}
