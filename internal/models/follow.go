package models

import "time"

// Follow is a directed edge: follower sees followee's posts in their
// following feed. Self-edges are rejected at the handler level; the feed
// aggregator only ever reads this relation.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FollowerID string    `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID string    `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
