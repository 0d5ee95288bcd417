package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"PicSphere/internal/core/profiles"
)

// DefaultSize and DefaultTTL bound the in-process profile cache
const (
	DefaultSize = 10000
	DefaultTTL  = 5 * time.Minute
)

// ProfileLRU is a bounded in-process profile cache with per-entry expiry
type ProfileLRU struct {
	lru *expirable.LRU[string, profiles.Profile]
}

var _ profiles.Cache = (*ProfileLRU)(nil)

// NewProfileLRU creates a cache holding at most size profiles for ttl each
func NewProfileLRU(size int, ttl time.Duration) *ProfileLRU {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProfileLRU{lru: expirable.NewLRU[string, profiles.Profile](size, nil, ttl)}
}

// Get returns a copy of the cached profile
func (c *ProfileLRU) Get(_ context.Context, userID string) (*profiles.Profile, bool) {
	p, ok := c.lru.Get(userID)
	if !ok {
		return nil, false
	}
	return clone(&p), true
}

func (c *ProfileLRU) Set(_ context.Context, profile *profiles.Profile) {
	if profile == nil || profile.UID == "" {
		return
	}
	c.lru.Add(profile.UID, *clone(profile))
}

func (c *ProfileLRU) Invalidate(_ context.Context, userID string) {
	c.lru.Remove(userID)
}

// Len returns the number of cached profiles
func (c *ProfileLRU) Len() int {
	return c.lru.Len()
}

func clone(p *profiles.Profile) *profiles.Profile {
	out := *p
	out.FollowerUserID = append([]string(nil), p.FollowerUserID...)
	out.FollowingUserID = append([]string(nil), p.FollowingUserID...)
	return &out
}
