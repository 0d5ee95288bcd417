package socialgraph

import (
	"context"
	"fmt"
)

// EdgeWriteMode selects how the two halves of a follow edge are written
type EdgeWriteMode string

const (
	// ModeAtomic writes both user documents in one atomic step. Needs a docstore.MultiMutator.
	ModeAtomic EdgeWriteMode = "atomic"
	// ModeAwait writes the follower side, then the following side, and reports a
	// *PartialEdgeError if only the first succeeded.
	ModeAwait EdgeWriteMode = "await"
	// ModeDetached awaits the follower side and writes the following side in the
	// background, logging failures for Reconcile to repair.
	ModeDetached EdgeWriteMode = "detached"
)

// ParseMode converts a configuration value into an EdgeWriteMode. Empty means auto.
func ParseMode(s string) (EdgeWriteMode, error) {
	switch EdgeWriteMode(s) {
	case "", ModeAtomic, ModeAwait, ModeDetached:
		return EdgeWriteMode(s), nil
	default:
		return "", fmt.Errorf("unknown edge write mode %q", s)
	}
}

// Service maintains follow edges as mirrored membership in the users'
// followerUserId and followingUserId lists
type Service interface {
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	IsFollowing(ctx context.Context, actorID, targetID string) (bool, error)
	ListFollowedIDs(ctx context.Context, userID string) ([]string, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
	// Reconcile rewrites following lists to mirror the follower lists
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
	// Mode reports the edge write mode in effect
	Mode() EdgeWriteMode
}

// Invalidator drops cached copies of a user's profile
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}
