package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/murmurapp/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePostSerializesConcurrentWriters(t *testing.T) {
	s := NewMemoryStore()
	s.PutPost(models.Post{ID: "p1"})
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithRetry(ctx, DefaultMaxRetries, func() error {
				_, uerr := s.UpdatePost(ctx, "p1", func(p *models.Post) error {
					p.CommentCount++
					return nil
				})
				return uerr
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, writers, p.CommentCount, "no increment lost")
	assert.Equal(t, int64(writers), p.Version)
}

func TestUpdatePostFnErrorAbortsWrite(t *testing.T) {
	s := NewMemoryStore()
	s.PutPost(models.Post{ID: "p1", VoteScore: 7})
	boom := errors.New("boom")

	_, err := s.UpdatePost(context.Background(), "p1", func(p *models.Post) error {
		p.VoteScore = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, gerr := s.GetPost(context.Background(), "p1")
	require.NoError(t, gerr)
	assert.Equal(t, 7, p.VoteScore, "aborted write leaves the record untouched")
	assert.Equal(t, int64(0), p.Version)
}

func TestGetPostHidesSoftDeleted(t *testing.T) {
	s := NewMemoryStore()
	p := models.Post{ID: "p1"}
	p.DeletedAt.Time = time.Now()
	p.DeletedAt.Valid = true
	s.PutPost(p)

	_, err := s.GetPost(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryRecentPostsUnsupportedWhenUnindexed(t *testing.T) {
	s := NewMemoryStore()
	s.SetIndexedRecentQuery(false)

	_, err := s.QueryRecentPosts(context.Background(), time.Now().Add(-time.Hour), 10)
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
	assert.False(t, s.Capabilities().IndexedRecentQuery)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrConflict))
	assert.True(t, IsTransient(ErrUnavailable))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(ErrUnsupportedQuery))
	assert.False(t, IsTransient(errors.New("other")))
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, func() error {
		calls++
		return ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls, "non-transient errors are not retried")
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, func() error {
		calls++
		if calls < 3 {
			return ErrUnavailable
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
