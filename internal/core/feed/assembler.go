package feed

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/stories"
)

// Feed is the content of the users someone follows
type Feed struct {
	Posts   []*posts.Post    `json:"posts"`
	Stories []*stories.Story `json:"stories"`
}

// PostSource lists posts by owner
type PostSource interface {
	ListByUser(ctx context.Context, userID string) ([]*posts.Post, error)
}

// StorySource lists stories by owner
type StorySource interface {
	ListByUser(ctx context.Context, userID string) ([]*stories.Story, error)
}

// FetchError is a failed per-user fetch during assembly
type FetchError struct {
	UserID string
	Kind   string // "posts" or "stories"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s of %s: %v", e.Kind, e.UserID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Assembler builds a feed by querying every followed user's posts and stories
type Assembler struct {
	posts       PostSource
	stories     StorySource
	concurrency int
	recency     bool
}

// Option configures an Assembler
type Option func(*Assembler)

// WithConcurrency fetches up to n users at once. n <= 1 keeps fetching sequential.
// The merged result keeps visit order either way.
func WithConcurrency(n int) Option {
	return func(a *Assembler) { a.concurrency = n }
}

// WithRecencyOrder sorts the merged feed newest first. Items without
// timestamps keep their relative order at the end.
func WithRecencyOrder() Option {
	return func(a *Assembler) { a.recency = true }
}

// NewAssembler creates a feed assembler
func NewAssembler(postSource PostSource, storySource StorySource, opts ...Option) *Assembler {
	a := &Assembler{posts: postSource, stories: storySource}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type userContent struct {
	posts   []*posts.Post
	stories []*stories.Story
	errs    []error
}

// Assemble visits followedIDs in order and concatenates their posts and stories.
// A failed fetch is skipped: the feed built from the rest is returned together
// with the last error in visit order.
func (a *Assembler) Assemble(ctx context.Context, followedIDs []string) (*Feed, error) {
	results := make([]userContent, len(followedIDs))

	if a.concurrency > 1 && len(followedIDs) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for i, id := range followedIDs {
			g.Go(func() error {
				results[i] = a.fetch(gctx, id)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, id := range followedIDs {
			results[i] = a.fetch(ctx, id)
		}
	}

	feed := &Feed{Posts: []*posts.Post{}, Stories: []*stories.Story{}}
	var lastErr error
	for _, r := range results {
		feed.Posts = append(feed.Posts, r.posts...)
		feed.Stories = append(feed.Stories, r.stories...)
		for _, err := range r.errs {
			lastErr = err
		}
	}

	if a.recency {
		SortByRecency(feed)
	}
	return feed, lastErr
}

func (a *Assembler) fetch(ctx context.Context, userID string) userContent {
	var out userContent

	ps, err := a.posts.ListByUser(ctx, userID)
	if err != nil {
		out.errs = append(out.errs, &FetchError{UserID: userID, Kind: "posts", Err: err})
	} else {
		out.posts = ps
	}

	ss, err := a.stories.ListByUser(ctx, userID)
	if err != nil {
		out.errs = append(out.errs, &FetchError{UserID: userID, Kind: "stories", Err: err})
	} else {
		out.stories = ss
	}
	return out
}

// SortByRecency orders posts by createdAt and stories by their last activity,
// newest first. The sort is stable.
func SortByRecency(f *Feed) {
	sort.SliceStable(f.Posts, func(i, j int) bool {
		return f.Posts[i].CreatedAt > f.Posts[j].CreatedAt
	})
	sort.SliceStable(f.Stories, func(i, j int) bool {
		return f.Stories[i].LastActivity() > f.Stories[j].LastActivity()
	})
}
