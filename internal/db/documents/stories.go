package documents

import (
	"context"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/stories"
)

// StoryRepository stores one story document per owner
type StoryRepository struct {
	c *docstore.Collection[stories.Story]
}

var (
	_ stories.Repository       = (*StoryRepository)(nil)
	_ profiles.SnapshotUpdater = (*StoryRepository)(nil)
)

// NewStoryRepository creates a story repository over store
func NewStoryRepository(store docstore.Store) *StoryRepository {
	return &StoryRepository{c: docstore.NewCollection[stories.Story](store, stories.Collection)}
}

func (r *StoryRepository) GetByID(ctx context.Context, storyID string) (*stories.Story, error) {
	story, err := r.c.Get(ctx, storyID)
	if err != nil {
		return nil, notFound(err, stories.ErrStoryNotFound)
	}
	return story, nil
}

func (r *StoryRepository) ListByUser(ctx context.Context, userID string) ([]*stories.Story, error) {
	return r.c.QueryBy(ctx, stories.FieldUserID, userID)
}

// AppendURL adds url to the story under storyID in one atomic mutation,
// writing seed first if the document does not exist yet
func (r *StoryRepository) AppendURL(ctx context.Context, storyID string, seed *stories.Story, url string, now int64) (*stories.Story, error) {
	return r.c.Mutate(ctx, storyID, func(current docstore.Document) (docstore.Document, error) {
		if current == nil {
			doc, err := docstore.Encode(seed)
			if err != nil {
				return nil, err
			}
			doc[stories.FieldStoryPostID] = storyID
			doc[stories.FieldStoryPostURL] = []string{url}
			doc[stories.FieldUpdatedAt] = now
			return doc, nil
		}
		current[stories.FieldStoryPostURL] = append(current.GetStrings(stories.FieldStoryPostURL), url)
		current[stories.FieldUpdatedAt] = now
		return current, nil
	})
}

func (r *StoryRepository) Delete(ctx context.Context, storyID string) error {
	return r.c.Delete(ctx, storyID)
}

func (r *StoryRepository) UpdateOwnerSnapshot(ctx context.Context, userID string, fields map[string]interface{}) (int, error) {
	return rewriteOwner(ctx, r.c, userID, fields, func(s *stories.Story) string { return s.StoryPostID })
}
