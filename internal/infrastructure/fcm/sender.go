// Package fcm implements domain.PushSender on Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/campo-social/notification/internal/domain"
)

// Sender submits push payloads via the FCM admin SDK. Single attempt per
// Send, no internal retry or backoff.
type Sender struct {
	client *messaging.Client
}

// New initializes the Firebase app from a credentials file and returns a
// ready Sender.
func New(ctx context.Context, credentialsFile string) (*Sender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &Sender{client: client}, nil
}

// Send submits one message and returns the FCM message id.
func (s *Sender) Send(ctx context.Context, p domain.PushPayload) (string, error) {
	id, err := s.client.Send(ctx, buildMessage(p))
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}

// buildMessage maps the provider-agnostic payload onto an FCM message.
// p.Data is already string-only; FCM rejects anything else.
func buildMessage(p domain.PushPayload) *messaging.Message {
	androidPriority := "normal"
	apnsPriority := "5"
	webUrgency := "normal"
	if p.Priority == domain.PriorityHigh {
		androidPriority = "high"
		apnsPriority = "10"
		webUrgency = "high"
	}

	return &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": apnsPriority},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge: intPtr(1),
					Sound: "default",
				},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"Urgency": webUrgency},
			Notification: &messaging.WebpushNotification{
				Icon:               "/icons/icon-192.png",
				Badge:              "/icons/icon-72.png",
				RequireInteraction: true,
			},
			FCMOptions: &messaging.WebpushFCMOptions{Link: "/"},
		},
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
