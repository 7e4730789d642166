package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a Murmur account.
//
// Reputation moves up and down with net votes received on the user's posts.
// Points is a monotonic lifetime total: only positive reputation deltas are
// added, it never decreases. Level is derived from Points via the progression
// curve and cached here so feed enrichment doesn't recompute it per item.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	AvatarURL   string `json:"avatar_url"`

	Reputation int `gorm:"default:0" json:"reputation"`
	Points     int `gorm:"default:0" json:"points"`
	Level      int `gorm:"default:1" json:"level"`

	// Social stats (cached counters, not source of truth)
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// Optimistic concurrency token for read-modify-write updates
	Version int64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
