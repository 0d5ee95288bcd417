package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"PicSphere/internal/core/notify"
)

// Notifier sends push messages to the per-user topic devices subscribe to
type Notifier struct {
	client *messaging.Client
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier wraps a messaging client
func NewNotifier(client *messaging.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Send(ctx context.Context, userID string, msg notify.Message) error {
	_, err := n.client.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data:  msg.Data,
		Topic: notify.Topic(userID),
	})
	if err != nil {
		return fmt.Errorf("fcm send to %s: %w", notify.Topic(userID), err)
	}
	return nil
}
