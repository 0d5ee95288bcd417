package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestHub_PublishDeliversToRecipientOnly(t *testing.T) {
	hub := NewHub()
	alice := hub.Register("alice")
	bob := hub.Register("bob")
	defer hub.Unregister(alice)
	defer hub.Unregister(bob)

	hub.Publish(context.Background(), "alice", New(TypeFollow, "bob", "alice"))

	ev := receive(t, alice)
	assert.Equal(t, TypeFollow, ev.Type)
	assert.Equal(t, "bob", ev.ActorID)
	assert.NotZero(t, ev.CreatedAt)

	select {
	case <-bob.Send:
		t.Fatal("bob should not receive alice's event")
	default:
	}
}

func TestHub_UnregisterClosesOnce(t *testing.T) {
	hub := NewHub()
	c := hub.Register("u1")
	assert.Equal(t, 1, hub.Connected("u1"))

	hub.Unregister(c)
	hub.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Connected("u1"))
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	hub := NewHub()
	c := hub.Register("u1")
	defer hub.Unregister(c)

	for i := 0; i < clientBuffer+10; i++ {
		hub.Deliver("u1", []byte(`{}`))
	}
	assert.Len(t, c.Send, clientBuffer)
}

func TestHub_PublishWithoutRecipientIsIgnored(t *testing.T) {
	hub := NewHub()
	hub.Publish(context.Background(), "", New(TypeLike, "a", "p1"))
}

func TestRedisBridge_RelaysBetweenHubs(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA, hubB := NewHub(), NewHub()
	bridgeA := NewRedisBridge(rdb, hubA)
	bridgeB := NewRedisBridge(rdb, hubB)

	readyA, readyB := make(chan struct{}), make(chan struct{})
	go func() { _ = bridgeA.Run(ctx, readyA) }()
	go func() { _ = bridgeB.Run(ctx, readyB) }()
	<-readyA
	<-readyB

	onA := hubA.Register("carol")
	onB := hubB.Register("carol")
	defer hubA.Unregister(onA)
	defer hubB.Unregister(onB)

	hubA.Publish(ctx, "carol", New(TypeComment, "dave", "post-1"))

	assert.Equal(t, TypeComment, receive(t, onA).Type)
	assert.Equal(t, "dave", receive(t, onB).ActorID)

	// the origin instance must not see its own message twice
	select {
	case <-onA.Send:
		t.Fatal("duplicate delivery on origin hub")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannelHelpers(t *testing.T) {
	assert.Equal(t, "u1", userIDFromChannel(channelName("u1")))
	assert.Equal(t, "", userIDFromChannel("other:u1"))
}
