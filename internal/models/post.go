package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a piece of shared content.
//
// Upvoters and Downvoters are disjoint sets of user IDs; VoteScore equals
// len(Upvoters)-len(Downvoters) after every committed mutation. The vote
// ledger is the only writer of these three fields and goes through the
// store's versioned read-modify-write, never a blind overwrite.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Body may be empty for media-only posts
	Body  string      `gorm:"type:text" json:"body"`
	Media StringArray `gorm:"type:text[]" json:"media"`

	// Engagement
	CommentCount int         `gorm:"default:0" json:"comment_count"`
	VoteScore    int         `gorm:"default:0" json:"vote_score"`
	Upvoters     StringArray `gorm:"type:text[]" json:"-"`
	Downvoters   StringArray `gorm:"type:text[]" json:"-"`

	EditedAt *time.Time `json:"edited_at,omitempty"`

	// Optimistic concurrency token for read-modify-write updates
	Version int64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EditWindow is how long after creation a post body may still be edited.
const EditWindow = 5 * time.Minute

// Editable reports whether the post can still be edited at the given instant.
func (p *Post) Editable(now time.Time) bool {
	return now.Sub(p.CreatedAt) <= EditWindow
}
