// Package scoring computes the time-decayed popularity score used to rank
// the trending feed, plus the reputation-based admission check applied
// before any post enters the ranked set.
package scoring

import (
	"math"
	"time"
)

// Default tunables for the hot score formula.
const (
	DefaultCommentWeight = 1.5
	DefaultTimeOffset    = 2.0
	DefaultGravity       = 1.5
)

// Weights holds the hot score tunables.
//
//	score = (voteScore + commentCount*CommentWeight) / (ageHours + TimeOffset)^Gravity
//
// CommentWeight > 1 so discussion counts for more than a bare vote,
// TimeOffset keeps brand-new posts from dividing by ~zero, and Gravity
// controls how fast old posts sink.
type Weights struct {
	CommentWeight float64
	TimeOffset    float64
	Gravity       float64
}

// DefaultWeights returns the production tunables.
func DefaultWeights() Weights {
	return Weights{
		CommentWeight: DefaultCommentWeight,
		TimeOffset:    DefaultTimeOffset,
		Gravity:       DefaultGravity,
	}
}

// HotScore computes the decayed popularity score for a post.
//
// A zero createdAt means the timestamp never made it into the record; the
// post scores 0 and sinks instead of aborting ranking for the whole page.
// Clock skew that puts createdAt in the future is treated as age zero.
func (w Weights) HotScore(voteScore, commentCount int, createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}

	engagement := float64(voteScore) + float64(commentCount)*w.CommentWeight

	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	return engagement / math.Pow(ageHours+w.TimeOffset, w.Gravity)
}
