package events

import (
	"context"
	"time"
)

// Type names the kind of activity an event reports
type Type string

const (
	TypeFollow  Type = "follow"
	TypeComment Type = "comment"
	TypeLike    Type = "like"
)

// Event is a notification delivered to one user's live connections.
// ActorID is the user who did something; SubjectID is the post or user it was done to.
type Event struct {
	Type      Type   `json:"type"`
	ActorID   string `json:"actorId"`
	SubjectID string `json:"subjectId,omitempty"`
	Text      string `json:"text,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// New creates an event stamped with the current time
func New(t Type, actorID, subjectID string) Event {
	return Event{
		Type:      t,
		ActorID:   actorID,
		SubjectID: subjectID,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Publisher delivers events to a recipient. Delivery is best effort and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, recipientID string, ev Event)
}

// Discard is a Publisher that drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, Event) {}
