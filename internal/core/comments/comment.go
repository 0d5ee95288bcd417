package comments

// Collection is the comments collection name
const Collection = "comments"

// Document field names on the comments collection
const (
	FieldCommentID   = "commentId"
	FieldPostID      = "postId"
	FieldUserID      = "userId"
	FieldCommentText = "commentText"
	FieldCreatedAt   = "createdAt"
)

// MaxTextLength caps a comment's text in characters
const MaxTextLength = 2200

// Comment is a comment document with a snapshot of its author
type Comment struct {
	CommentID         string `json:"commentId"`
	PostID            string `json:"postId"`
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureURL"`
	CommentText       string `json:"commentText"`
	CreatedAt         int64  `json:"createdAt,omitempty"`
}
