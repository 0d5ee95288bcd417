package notify

import (
	"context"
	"log"
	"time"
)

// sendTimeout bounds a detached push send
const sendTimeout = 10 * time.Second

// Message is a push notification
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier sends push notifications to a user's devices
type Notifier interface {
	Send(ctx context.Context, userID string, msg Message) error
}

// Noop drops every message
type Noop struct{}

func (Noop) Send(context.Context, string, Message) error { return nil }

// Topic is the push topic a user's devices subscribe to
func Topic(userID string) string {
	return "user_" + userID
}

// Detached sends msg in the background. The request context's cancellation
// does not reach the send; failures are logged.
func Detached(ctx context.Context, n Notifier, userID string, msg Message) {
	if n == nil || userID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := n.Send(ctx, userID, msg); err != nil {
			log.Printf("[PUSH] Failed to notify %s: %v", userID, err)
		}
	}()
}
