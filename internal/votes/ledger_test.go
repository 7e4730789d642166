package votes

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/murmurapp/backend/internal/models"
	"github.com/murmurapp/backend/internal/progression"
	"github.com/murmurapp/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() (*Ledger, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewLedger(st, progression.Default()), st
}

func seedPostWithAuthor(st *store.MemoryStore, postID, authorID string) {
	st.PutUser(models.User{ID: authorID, Username: "author", Level: 1})
	st.PutPost(models.Post{ID: postID, UserID: authorID})
}

func TestApplyCastUpvote(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")

	res, err := ledger.Apply(context.Background(), "post-1", "voter-1", Up)
	require.NoError(t, err)

	assert.Equal(t, 1, res.NewScore)
	assert.Equal(t, 1, res.ReputationDelta)
	assert.Equal(t, TransitionCast, res.Transition)

	author, err := st.GetAuthor(context.Background(), "author-1")
	require.NoError(t, err)
	assert.Equal(t, 1, author.Reputation)
	assert.Equal(t, 1, author.Points)
}

func TestApplyCastDownvote(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")

	res, err := ledger.Apply(context.Background(), "post-1", "voter-1", Down)
	require.NoError(t, err)

	assert.Equal(t, -1, res.NewScore)
	assert.Equal(t, -1, res.ReputationDelta)
	assert.Equal(t, TransitionCast, res.Transition)

	author, err := st.GetAuthor(context.Background(), "author-1")
	require.NoError(t, err)
	assert.Equal(t, -1, author.Reputation)
	// Points only accrue on positive deltas
	assert.Equal(t, 0, author.Points)
}

func TestApplyToggleOffNetsToZero(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")
	ctx := context.Background()

	_, err := ledger.Apply(ctx, "post-1", "voter-1", Up)
	require.NoError(t, err)

	res, err := ledger.Apply(ctx, "post-1", "voter-1", Up)
	require.NoError(t, err)

	assert.Equal(t, 0, res.NewScore)
	assert.Equal(t, -1, res.ReputationDelta)
	assert.Equal(t, TransitionToggleOff, res.Transition)

	author, err := st.GetAuthor(ctx, "author-1")
	require.NoError(t, err)
	assert.Equal(t, 0, author.Reputation, "cast then toggle-off nets to zero reputation")
	// Points are monotonic: the +1 from the cast stays
	assert.Equal(t, 1, author.Points)
}

func TestApplySwitchIsCompound(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")
	ctx := context.Background()

	_, err := ledger.Apply(ctx, "post-1", "voter-1", Up)
	require.NoError(t, err)

	res, err := ledger.Apply(ctx, "post-1", "voter-1", Down)
	require.NoError(t, err)

	assert.Equal(t, -1, res.NewScore, "switch moves score by 2 in one transition")
	assert.Equal(t, -2, res.ReputationDelta)
	assert.Equal(t, TransitionSwitch, res.Transition)

	post, err := st.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, post.Upvoters.Contains("voter-1"))
	assert.True(t, post.Downvoters.Contains("voter-1"))

	author, err := st.GetAuthor(ctx, "author-1")
	require.NoError(t, err)
	assert.Equal(t, -1, author.Reputation)
}

func TestApplySelfVoteIsNoOp(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")
	st.PutPost(models.Post{ID: "post-1", UserID: "author-1", VoteScore: 3,
		Upvoters: models.StringArray{"a", "b", "c"}})

	res, err := ledger.Apply(context.Background(), "post-1", "author-1", Up)
	require.NoError(t, err)

	assert.Equal(t, 3, res.NewScore, "score unchanged")
	assert.Equal(t, 0, res.ReputationDelta)
	assert.Equal(t, TransitionSelfVote, res.Transition)

	post, err := st.GetPost(context.Background(), "post-1")
	require.NoError(t, err)
	assert.False(t, post.Upvoters.Contains("author-1"))

	author, err := st.GetAuthor(context.Background(), "author-1")
	require.NoError(t, err)
	assert.Equal(t, 0, author.Reputation)
}

func TestApplyInvalidDirection(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")

	_, err := ledger.Apply(context.Background(), "post-1", "voter-1", Direction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestApplyMissingPost(t *testing.T) {
	ledger, _ := newTestLedger()

	_, err := ledger.Apply(context.Background(), "nope", "voter-1", Up)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRepairsBothSetsCorruption(t *testing.T) {
	ledger, st := newTestLedger()
	st.PutUser(models.User{ID: "author-1", Level: 1})
	// Corrupt state: voter-1 in both sets, score stale.
	st.PutPost(models.Post{
		ID:         "post-1",
		UserID:     "author-1",
		VoteScore:  5,
		Upvoters:   models.StringArray{"voter-1", "x"},
		Downvoters: models.StringArray{"voter-1"},
	})

	res, err := ledger.Apply(context.Background(), "post-1", "voter-1", Up)
	require.NoError(t, err)

	// Repair leaves {x} up / {} down, then the cast adds voter-1 back up.
	assert.Equal(t, 2, res.NewScore)
	assert.Equal(t, TransitionCast, res.Transition)

	post, err := st.GetPost(context.Background(), "post-1")
	require.NoError(t, err)
	assert.True(t, post.Upvoters.Contains("voter-1"))
	assert.False(t, post.Downvoters.Contains("voter-1"))
	assert.Equal(t, len(post.Upvoters)-len(post.Downvoters), post.VoteScore)
}

func TestApplyVoteCommitsWhenReputationWriteFails(t *testing.T) {
	ledger, st := newTestLedger()
	// Author record missing: the reputation side effect cannot land.
	st.PutPost(models.Post{ID: "post-1", UserID: "ghost-author"})

	res, err := ledger.Apply(context.Background(), "post-1", "voter-1", Up)
	require.NoError(t, err, "vote must not roll back on reputation failure")
	assert.Equal(t, 1, res.NewScore)

	post, err := st.GetPost(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, 1, post.VoteScore)
	assert.True(t, post.Upvoters.Contains("voter-1"))
}

type captureReconciler struct {
	mu  sync.Mutex
	ids []string
}

func (c *captureReconciler) Enqueue(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
}

func TestApplyEnqueuesReconciliationOnReputationFailure(t *testing.T) {
	ledger, st := newTestLedger()
	st.PutPost(models.Post{ID: "post-1", UserID: "ghost-author"})

	rec := &captureReconciler{}
	ledger.SetReconciler(rec)

	_, err := ledger.Apply(context.Background(), "post-1", "voter-1", Up)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost-author"}, rec.ids)
}

func TestApplyConcurrentDistinctVoters(t *testing.T) {
	ledger, st := newTestLedger()
	seedPostWithAuthor(st, "post-1", "author-1")
	ctx := context.Background()

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			dir := Up
			if n%4 == 0 {
				dir = Down
			}
			_, err := ledger.Apply(ctx, "post-1", fmt.Sprintf("voter-%d", n), dir)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	post, err := st.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, len(post.Upvoters)-len(post.Downvoters), post.VoteScore,
		"no vote lost under concurrent writes")
	assert.Len(t, post.Upvoters, 15)
	assert.Len(t, post.Downvoters, 5)
	assert.Equal(t, 10, post.VoteScore)
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, Up.Valid())
	assert.True(t, Down.Valid())
	assert.False(t, Direction("").Valid())
	assert.False(t, Direction("UP").Valid())
}
