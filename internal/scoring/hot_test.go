package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHotScoreDecaysOverTime(t *testing.T) {
	w := DefaultWeights()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := w.HotScore(10, 0, created, created)
	hourLater := w.HotScore(10, 0, created, created.Add(time.Hour))
	dayLater := w.HotScore(10, 0, created, created.Add(24*time.Hour))

	assert.Greater(t, fresh, hourLater, "same engagement must score lower as it ages")
	assert.Greater(t, hourLater, dayLater)
}

func TestHotScorePreservesEngagementOrdering(t *testing.T) {
	w := DefaultWeights()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(3 * time.Hour)

	assert.Greater(t, w.HotScore(10, 0, created, now), w.HotScore(5, 0, created, now))
	assert.Greater(t, w.HotScore(0, 10, created, now), w.HotScore(0, 5, created, now))
}

func TestHotScoreCommentWeight(t *testing.T) {
	w := DefaultWeights()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	// One comment outweighs one vote since CommentWeight > 1
	assert.Greater(t, w.HotScore(0, 1, created, now), w.HotScore(1, 0, created, now))
}

func TestHotScoreZeroTimestamp(t *testing.T) {
	w := DefaultWeights()

	score := w.HotScore(100, 50, time.Time{}, time.Now())
	assert.Equal(t, 0.0, score, "missing timestamps score zero instead of faulting")
}

func TestHotScoreFutureCreatedAt(t *testing.T) {
	w := DefaultWeights()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Clock skew: createdAt slightly in the future is treated as age 0
	skewed := w.HotScore(10, 0, now.Add(time.Minute), now)
	fresh := w.HotScore(10, 0, now, now)
	assert.Equal(t, fresh, skewed)
}

func TestHotScoreKnownValues(t *testing.T) {
	// W=1.5, T=2, G=1.5:
	// post A: 5 votes, 3 comments, 1h old  -> 9.5 / 3^1.5  ~= 1.828
	// post B: 20 votes, 0 comments, 23h old -> 20 / 25^1.5 = 0.16
	w := Weights{CommentWeight: 1.5, TimeOffset: 2, Gravity: 1.5}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	scoreA := w.HotScore(5, 3, now.Add(-1*time.Hour), now)
	scoreB := w.HotScore(20, 0, now.Add(-23*time.Hour), now)

	assert.InDelta(t, 1.8283, scoreA, 0.001)
	assert.InDelta(t, 0.16, scoreB, 0.001)
	assert.Greater(t, scoreA, scoreB, "fresh engagement must beat stale vote totals")
}

func TestHotScoreNegativeVotes(t *testing.T) {
	w := DefaultWeights()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	score := w.HotScore(-5, 0, created, now)
	assert.Less(t, score, 0.0, "net-negative posts score below zero")
}
