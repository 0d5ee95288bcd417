package feed

import (
	"context"
	"log"

	"PicSphere/internal/core/session"
)

// FollowLister returns the ids a user follows
type FollowLister interface {
	ListFollowedIDs(ctx context.Context, userID string) ([]string, error)
}

// Service builds home feeds
type Service interface {
	// GetHomeFeed assembles the feed of everyone actorID follows. On partial
	// failure the feed is returned with a non-nil error.
	GetHomeFeed(ctx context.Context, actorID string) (*Feed, error)
}

type feedService struct {
	graph     FollowLister
	assembler *Assembler
}

// NewFeedService creates a feed service
func NewFeedService(graph FollowLister, assembler *Assembler) Service {
	return &feedService{graph: graph, assembler: assembler}
}

func (s *feedService) GetHomeFeed(ctx context.Context, actorID string) (*Feed, error) {
	if actorID == "" {
		return nil, session.ErrNotAuthenticated
	}
	ids, err := s.graph.ListFollowedIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}

	feed, err := s.assembler.Assemble(ctx, ids)
	if err != nil {
		log.Printf("[FEED] Partial feed for %s (%d users): %v", actorID, len(ids), err)
	}
	return feed, err
}
