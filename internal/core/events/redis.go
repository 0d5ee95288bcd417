package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "picsphere:events:"
	channelGlob   = channelPrefix + "*"
)

type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBridge relays hub events between instances over Redis pub/sub.
// Messages published by this instance are ignored when they come back.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
	origin string
}

// NewRedisBridge creates a bridge and attaches it to hub as its relay
func NewRedisBridge(client *redis.Client, hub *Hub) *RedisBridge {
	b := &RedisBridge{
		client: client,
		hub:    hub,
		origin: uuid.NewString(),
	}
	hub.SetRelay(b)
	return b
}

// Forward publishes payload for recipientID to the other instances
func (b *RedisBridge) Forward(ctx context.Context, recipientID string, payload []byte) error {
	msg, err := json.Marshal(envelope{Origin: b.origin, Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(context.WithoutCancel(ctx), channelName(recipientID), msg).Err()
}

// Run subscribes and delivers remote events to local clients until ctx is done.
// ready, if non-nil, is closed once the subscription is confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.PSubscribe(ctx, channelGlob)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg)
		}
	}
}

func (b *RedisBridge) handle(msg *redis.Message) {
	userID := userIDFromChannel(msg.Channel)
	if userID == "" {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		log.Printf("[EVENTS] Ignoring malformed relay message on %s: %v", msg.Channel, err)
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.hub.Deliver(userID, env.Payload)
}

func channelName(userID string) string {
	return channelPrefix + userID
}

func userIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) {
		return ""
	}
	return strings.TrimPrefix(ch, channelPrefix)
}
