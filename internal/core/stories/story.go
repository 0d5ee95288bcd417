package stories

// Collection is the stories collection name
const Collection = "stories"

// Document field names on the stories collection
const (
	FieldStoryPostID  = "storyPostId"
	FieldUserID       = "userId"
	FieldStoryPostURL = "storyPostURL"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
)

// Story holds every story image of one owner. A user has at most one story
// document; new images are appended to StoryPostURL.
type Story struct {
	StoryPostID       string   `json:"storyPostId"`
	UserID            string   `json:"userId"`
	ProfilePictureURL string   `json:"profilePictureURL"`
	Username          string   `json:"username"`
	StoryPostURL      []string `json:"storyPostURL"`
	CreatedAt         int64    `json:"createdAt,omitempty"`
	UpdatedAt         int64    `json:"updatedAt,omitempty"`
}

// LastActivity is the time used for recency ordering
func (s *Story) LastActivity() int64 {
	if s.UpdatedAt > s.CreatedAt {
		return s.UpdatedAt
	}
	return s.CreatedAt
}
