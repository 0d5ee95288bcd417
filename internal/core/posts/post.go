package posts

// Collection is the posts collection name
const Collection = "posts"

// Document field names on the posts collection
const (
	FieldPostID       = "postId"
	FieldUserID       = "userId"
	FieldPostURL      = "postURL"
	FieldCommentCount = "commentCount"
	FieldLikeCount    = "likeCount"
	FieldCreatedAt    = "createdAt"
)

// Post is a post document. Username and ProfilePictureURL are copies of the
// owner's profile at upload time, rewritten when the owner edits their profile.
// CreatedAt is unix milliseconds; documents from before it existed read as 0.
type Post struct {
	PostID            string   `json:"postId"`
	UserID            string   `json:"userId"`
	Username          string   `json:"username"`
	ProfilePictureURL string   `json:"profilePictureURL"`
	PostURL           []string `json:"postURL"`
	CommentCount      int      `json:"commentCount"`
	LikeCount         int      `json:"likeCount"`
	CreatedAt         int64    `json:"createdAt,omitempty"`
}
