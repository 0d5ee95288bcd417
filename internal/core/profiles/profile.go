package profiles

// Collection is the users collection name
const Collection = "users"

// Document field names on the users collection
const (
	FieldUID               = "uid"
	FieldUsername          = "username"
	FieldEmail             = "email"
	FieldProfilePictureURL = "profilePictureURL"
	FieldBio               = "bio"
	FieldFollowerUserID    = "followerUserId"
	FieldFollowingUserID   = "followingUserId"
	FieldPostCount         = "postCount"
)

// Profile is a user document.
// Follower and following counts are derived from the id lists and never stored.
// PostCount is a denormalized counter maintained on upload and delete.
type Profile struct {
	UID               string   `json:"uid"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	ProfilePictureURL string   `json:"profilePictureURL,omitempty"`
	Bio               string   `json:"bio"`
	FollowerUserID    []string `json:"followerUserId"`
	FollowingUserID   []string `json:"followingUserId"`
	PostCount         int      `json:"postCount"`
}

// FollowerCount is the number of users following this profile
func (p *Profile) FollowerCount() int {
	return len(p.FollowerUserID)
}

// FollowingCount is the number of users this profile follows
func (p *Profile) FollowingCount() int {
	return len(p.FollowingUserID)
}

// IsFollowing reports whether userID is in the following list
func (p *Profile) IsFollowing(userID string) bool {
	for _, id := range p.FollowingUserID {
		if id == userID {
			return true
		}
	}
	return false
}

// View is the public JSON shape of a profile, with derived counts
type View struct {
	UID               string   `json:"uid"`
	Username          string   `json:"username"`
	ProfilePictureURL string   `json:"profilePictureURL,omitempty"`
	Bio               string   `json:"bio"`
	FollowerUserID    []string `json:"followerUserId"`
	FollowingUserID   []string `json:"followingUserId"`
	FollowerCount     int      `json:"followerCount"`
	FollowingCount    int      `json:"followingCount"`
	PostCount         int      `json:"postCount"`
}

// ToView builds the public view. Email is omitted.
func (p *Profile) ToView() *View {
	followers := p.FollowerUserID
	if followers == nil {
		followers = []string{}
	}
	following := p.FollowingUserID
	if following == nil {
		following = []string{}
	}
	return &View{
		UID:               p.UID,
		Username:          p.Username,
		ProfilePictureURL: p.ProfilePictureURL,
		Bio:               p.Bio,
		FollowerUserID:    followers,
		FollowingUserID:   following,
		FollowerCount:     len(followers),
		FollowingCount:    len(following),
		PostCount:         p.PostCount,
	}
}

// OwnerSnapshot is the denormalized copy of a user's identity stored on
// posts, stories and comments
type OwnerSnapshot struct {
	UserID            string
	Username          string
	ProfilePictureURL string
}

// Snapshot returns the owner fields to copy onto content
func (p *Profile) Snapshot() OwnerSnapshot {
	return OwnerSnapshot{
		UserID:            p.UID,
		Username:          p.Username,
		ProfilePictureURL: p.ProfilePictureURL,
	}
}
