package socialgraph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sync"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/events"
	"PicSphere/internal/core/notify"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
)

// errNoChange aborts a mutation whose list already has the wanted membership
var errNoChange = errors.New("membership unchanged")

type graphService struct {
	store    docstore.Store
	mode     EdgeWriteMode
	cache    Invalidator
	events   events.Publisher
	notifier notify.Notifier
	logger   *slog.Logger

	// pending tracks detached following-side writes
	pending sync.WaitGroup
}

// Option configures the graph service
type Option func(*graphService)

// WithMode forces an edge write mode. ModeAtomic is ignored unless the store
// implements docstore.MultiMutator.
func WithMode(mode EdgeWriteMode) Option {
	return func(s *graphService) { s.mode = mode }
}

// WithCache sets the profile cache invalidated after every edge change
func WithCache(c Invalidator) Option {
	return func(s *graphService) { s.cache = c }
}

// WithPublisher sets where follow events are published
func WithPublisher(p events.Publisher) Option {
	return func(s *graphService) { s.events = p }
}

// WithNotifier sets the push notifier for new followers
func WithNotifier(n notify.Notifier) Option {
	return func(s *graphService) { s.notifier = n }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *graphService) { s.logger = l }
}

// NewGraphService creates the social graph service over the users collection.
// Without WithMode the mode is atomic when the store supports multi-document
// mutations and await otherwise.
func NewGraphService(store docstore.Store, opts ...Option) Service {
	s := &graphService{
		store:    store,
		events:   events.Discard,
		notifier: notify.Noop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	_, multi := store.(docstore.MultiMutator)
	switch {
	case s.mode == "" && multi:
		s.mode = ModeAtomic
	case s.mode == "":
		s.mode = ModeAwait
	case s.mode == ModeAtomic && !multi:
		log.Printf("[FOLLOW] Store does not support atomic multi-document writes, using %s mode", ModeAwait)
		s.mode = ModeAwait
	}
	return s
}

func (s *graphService) Mode() EdgeWriteMode {
	return s.mode
}

// Follow makes actorID follow targetID. Following someone twice is a no-op.
func (s *graphService) Follow(ctx context.Context, actorID, targetID string) error {
	if err := validateEdge(actorID, targetID); err != nil {
		return err
	}
	changed, err := s.writeEdge(ctx, "follow", actorID, targetID, true)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	log.Printf("[FOLLOW] %s now follows %s", actorID, targetID)
	s.events.Publish(ctx, targetID, events.New(events.TypeFollow, actorID, targetID))
	notify.Detached(ctx, s.notifier, targetID, notify.Message{
		Title: "New follower",
		Body:  "Someone started following you",
		Data:  map[string]string{"followerId": actorID},
	})
	return nil
}

// Unfollow removes the edge. Unfollowing someone not followed is a no-op.
func (s *graphService) Unfollow(ctx context.Context, actorID, targetID string) error {
	if err := validateEdge(actorID, targetID); err != nil {
		return err
	}
	changed, err := s.writeEdge(ctx, "unfollow", actorID, targetID, false)
	if err != nil {
		return err
	}
	if changed {
		log.Printf("[FOLLOW] %s unfollowed %s", actorID, targetID)
	}
	return nil
}

func (s *graphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == "" {
		return false, session.ErrNotAuthenticated
	}
	if targetID == "" {
		return false, NewValidationError("userId", "target user id is required")
	}
	doc, err := s.loadUser(ctx, actorID)
	if err != nil {
		return false, err
	}
	return contains(doc.GetStrings(profiles.FieldFollowingUserID), targetID), nil
}

// ListFollowedIDs returns a snapshot of the users userID follows, in list order
func (s *graphService) ListFollowedIDs(ctx context.Context, userID string) ([]string, error) {
	return s.list(ctx, userID, profiles.FieldFollowingUserID)
}

// ListFollowerIDs returns a snapshot of the users following userID, in list order
func (s *graphService) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.list(ctx, userID, profiles.FieldFollowerUserID)
}

func (s *graphService) list(ctx context.Context, userID, field string) ([]string, error) {
	if userID == "" {
		return nil, NewValidationError("userId", "user id is required")
	}
	doc, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := doc.GetStrings(field)
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// writeEdge reports whether either list was modified
func (s *graphService) writeEdge(ctx context.Context, op, actorID, targetID string, add bool) (bool, error) {
	defer s.invalidate(ctx, actorID, targetID)

	switch s.mode {
	case ModeAtomic:
		return s.writeAtomic(ctx, actorID, targetID, add)
	case ModeDetached:
		return s.writeDetached(ctx, op, actorID, targetID, add)
	default:
		return s.writeAwait(ctx, op, actorID, targetID, add)
	}
}

// writeAtomic updates both documents in one MutateMany call
func (s *graphService) writeAtomic(ctx context.Context, actorID, targetID string, add bool) (bool, error) {
	mm := s.store.(docstore.MultiMutator)
	changed := false
	actorKey := docstore.Key{Collection: profiles.Collection, ID: actorID}
	targetKey := docstore.Key{Collection: profiles.Collection, ID: targetID}

	err := mm.MutateMany(ctx, []docstore.Key{actorKey, targetKey}, func(current map[docstore.Key]docstore.Document) (map[docstore.Key]docstore.Document, error) {
		actor, ok := current[actorKey]
		if !ok {
			return nil, userNotFound(actorID)
		}
		target, ok := current[targetKey]
		if !ok {
			return nil, userNotFound(targetID)
		}

		out := map[docstore.Key]docstore.Document{}
		if following, changed := edit(actor.GetStrings(profiles.FieldFollowingUserID), targetID, add); changed {
			actor[profiles.FieldFollowingUserID] = following
			out[actorKey] = actor
		}
		if followers, changed := edit(target.GetStrings(profiles.FieldFollowerUserID), actorID, add); changed {
			target[profiles.FieldFollowerUserID] = followers
			out[targetKey] = target
		}
		changed = len(out) > 0
		return out, nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, err
		}
		return false, docstore.Wrap("mutate", profiles.Collection, actorID, err)
	}
	return changed, nil
}

// writeAwait writes the follower side, then the following side
func (s *graphService) writeAwait(ctx context.Context, op, actorID, targetID string, add bool) (bool, error) {
	if _, err := s.loadUser(ctx, actorID); err != nil {
		return false, err
	}
	followerChanged, err := s.editList(ctx, targetID, profiles.FieldFollowerUserID, actorID, add)
	if err != nil {
		return false, err
	}
	followingChanged, err := s.editList(ctx, actorID, profiles.FieldFollowingUserID, targetID, add)
	if err != nil {
		s.logger.Warn("follow edge partially applied",
			slog.String("op", op),
			slog.String("actor_id", actorID),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
		return followerChanged, &PartialEdgeError{
			Op:       op,
			ActorID:  actorID,
			TargetID: targetID,
			Applied:  fmt.Sprintf("%s/%s.%s", profiles.Collection, targetID, profiles.FieldFollowerUserID),
			Err:      err,
		}
	}
	return followerChanged || followingChanged, nil
}

// writeDetached awaits the follower side only, so only that side decides
// whether the edge changed
func (s *graphService) writeDetached(ctx context.Context, op, actorID, targetID string, add bool) (bool, error) {
	if _, err := s.loadUser(ctx, actorID); err != nil {
		return false, err
	}
	changed, err := s.editList(ctx, targetID, profiles.FieldFollowerUserID, actorID, add)
	if err != nil {
		return false, err
	}

	s.pending.Add(1)
	go func(ctx context.Context) {
		defer s.pending.Done()
		if _, err := s.editList(ctx, actorID, profiles.FieldFollowingUserID, targetID, add); err != nil {
			log.Printf("[FOLLOW] Detached %s %s -> %s failed on following side, left for reconcile: %v", op, actorID, targetID, err)
			return
		}
		s.invalidate(ctx, actorID)
	}(context.WithoutCancel(ctx))
	return changed, nil
}

// editList adds or removes member in one list of userID with the store's
// strongest mutate, and reports whether the list changed
func (s *graphService) editList(ctx context.Context, userID, field, member string, add bool) (bool, error) {
	_, err := docstore.Mutate(ctx, s.store, profiles.Collection, userID, func(current docstore.Document) (docstore.Document, error) {
		if current == nil {
			return nil, userNotFound(userID)
		}
		next, changed := edit(current.GetStrings(field), member, add)
		if !changed {
			return nil, errNoChange
		}
		current[field] = next
		return current, nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNoChange):
		return false, nil
	case errors.Is(err, docstore.ErrNotFound):
		return false, err
	default:
		return false, docstore.Wrap("mutate", profiles.Collection, userID, err)
	}
}

func (s *graphService) loadUser(ctx context.Context, userID string) (docstore.Document, error) {
	doc, err := s.store.Get(ctx, profiles.Collection, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, userNotFound(userID)
		}
		return nil, docstore.Wrap("get", profiles.Collection, userID, err)
	}
	return doc, nil
}

func (s *graphService) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		s.cache.Invalidate(ctx, id)
	}
}

func validateEdge(actorID, targetID string) error {
	if actorID == "" {
		return session.ErrNotAuthenticated
	}
	if targetID == "" {
		return NewValidationError("userId", "target user id is required")
	}
	if actorID == targetID {
		return NewValidationError("userId", "cannot follow yourself")
	}
	return nil
}

func userNotFound(userID string) error {
	return fmt.Errorf("user %s: %w", userID, profiles.ErrProfileNotFound)
}

// edit returns list with id added (once) or removed (every occurrence)
func edit(list []string, id string, add bool) ([]string, bool) {
	if add {
		if contains(list, id) {
			return list, false
		}
		return append(list, id), true
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(list)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
