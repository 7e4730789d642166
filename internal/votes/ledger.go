// Package votes maintains per-post vote state and its reputation side
// effects. A vote is a click-to-toggle action: re-casting the same
// direction removes the vote, casting the opposite direction switches it
// in one compound transition.
package votes

import (
	"context"
	"errors"

	"github.com/murmurapp/backend/internal/logger"
	"github.com/murmurapp/backend/internal/metrics"
	"github.com/murmurapp/backend/internal/models"
	"github.com/murmurapp/backend/internal/progression"
	"github.com/murmurapp/backend/internal/store"
	"go.uber.org/zap"
)

// Direction is the vote direction cast by the client.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// Transition names the state-machine edge a vote took. Exposed in results
// and metrics labels.
type Transition string

const (
	TransitionCast      Transition = "cast"       // no vote -> up/down
	TransitionToggleOff Transition = "toggle_off" // same direction re-cast
	TransitionSwitch    Transition = "switch"     // opposite direction
	TransitionSelfVote  Transition = "self_vote"  // rejected no-op
)

// Result describes the committed outcome of an Apply call.
type Result struct {
	NewScore        int        `json:"new_score"`
	ReputationDelta int        `json:"reputation_delta"`
	Transition      Transition `json:"transition"`
}

// ErrInvalidDirection is returned for directions other than up/down.
var ErrInvalidDirection = errors.New("votes: invalid direction")

// errSelfVote aborts the read-modify-write without committing anything.
var errSelfVote = errors.New("votes: self vote")

// Reconciler receives authors whose reputation record is known stale so a
// background repair can pick them up.
type Reconciler interface {
	Enqueue(authorID string)
}

// Ledger applies vote transitions against the persistence port.
type Ledger struct {
	store      store.Store
	curve      progression.Curve
	reconciler Reconciler // optional
}

// NewLedger returns a ledger over s. The progression curve keeps the
// author's cached level in step with their points total.
func NewLedger(s store.Store, curve progression.Curve) *Ledger {
	return &Ledger{store: s, curve: curve}
}

// SetReconciler routes failed reputation side effects to a background
// repair queue instead of leaving them for a manual sweep.
func (l *Ledger) SetReconciler(r Reconciler) {
	l.reconciler = r
}

// Apply records a vote by voterID on postID.
//
// The post's vote sets and score are mutated through the store's versioned
// read-modify-write, so two concurrent votes by different users on the same
// post both land. The author-reputation side effect is a separate write and
// is NOT atomic with the post update: if it fails the vote stands, the
// author's reputation is stale by the delta, and the gap is logged and
// counted for reconciliation.
func (l *Ledger) Apply(ctx context.Context, postID, voterID string, dir Direction) (Result, error) {
	if !dir.Valid() {
		return Result{}, ErrInvalidDirection
	}

	// Captured from the attempt that commits. fn may run more than once
	// under CAS retries; every attempt recomputes from fresh state.
	var (
		delta      int
		transition Transition
		authorID   string
	)

	apply := func(p *models.Post) error {
		if p.UserID == voterID {
			return errSelfVote
		}
		authorID = p.UserID

		hasUp := p.Upvoters.Contains(voterID)
		hasDown := p.Downvoters.Contains(voterID)

		if hasUp && hasDown {
			// Upstream corruption: a voter can never be in both sets.
			// Repair by clearing both memberships and restoring the
			// score invariant, then treat the cast as a fresh vote.
			p.Upvoters = p.Upvoters.Without(voterID)
			p.Downvoters = p.Downvoters.Without(voterID)
			p.VoteScore = len(p.Upvoters) - len(p.Downvoters)
			hasUp, hasDown = false, false
			logger.Log.Warn("voter present in both vote sets, repaired",
				zap.String("post_id", p.ID),
				zap.String("voter_id", voterID))
			metrics.RecordVoteAnomaly("both_sets")
		}

		switch {
		case dir == Up && hasUp:
			p.Upvoters = p.Upvoters.Without(voterID)
			delta = -1
			transition = TransitionToggleOff
		case dir == Down && hasDown:
			p.Downvoters = p.Downvoters.Without(voterID)
			delta = +1
			transition = TransitionToggleOff
		case dir == Up && hasDown:
			p.Downvoters = p.Downvoters.Without(voterID)
			p.Upvoters = append(p.Upvoters, voterID)
			delta = +2
			transition = TransitionSwitch
		case dir == Down && hasUp:
			p.Upvoters = p.Upvoters.Without(voterID)
			p.Downvoters = append(p.Downvoters, voterID)
			delta = -2
			transition = TransitionSwitch
		case dir == Up:
			p.Upvoters = append(p.Upvoters, voterID)
			delta = +1
			transition = TransitionCast
		default:
			p.Downvoters = append(p.Downvoters, voterID)
			delta = -1
			transition = TransitionCast
		}

		p.VoteScore += delta
		return nil
	}

	var updated *models.Post
	err := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
		var uerr error
		updated, uerr = l.store.UpdatePost(ctx, postID, apply)
		return uerr
	})
	if errors.Is(err, errSelfVote) {
		// Not an error: the UI may attempt it defensively. Report the
		// current score unchanged.
		p, gerr := l.store.GetPost(ctx, postID)
		if gerr != nil {
			return Result{}, gerr
		}
		return Result{NewScore: p.VoteScore, Transition: TransitionSelfVote}, nil
	}
	if err != nil {
		return Result{}, err
	}

	metrics.RecordVoteTransition(string(transition))

	l.adjustReputation(ctx, authorID, voterID, updated.ID, delta)

	return Result{
		NewScore:        updated.VoteScore,
		ReputationDelta: delta,
		Transition:      transition,
	}, nil
}

// adjustReputation applies the vote's reputation delta to the author.
// Positive deltas also accrue to the monotonic points total and may bump
// the cached level. Failures leave the vote committed and are recorded as
// reconciliation anomalies.
func (l *Ledger) adjustReputation(ctx context.Context, authorID, voterID, postID string, delta int) {
	if delta == 0 || authorID == voterID {
		return
	}

	err := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
		_, uerr := l.store.UpdateAuthor(ctx, authorID, func(u *models.User) error {
			u.Reputation += delta
			if delta > 0 {
				u.Points += delta
				u.Level = l.curve.LevelOf(u.Points).Level
			}
			return nil
		})
		return uerr
	})
	if err != nil {
		// The post update already committed. Accepted, bounded
		// inconsistency: reputation is stale by delta until
		// reconciliation picks it up.
		logger.Log.Error("reputation update failed after committed vote",
			zap.String("post_id", postID),
			zap.String("author_id", authorID),
			zap.Int("delta", delta),
			zap.Error(err))
		metrics.RecordReconciliationAnomaly()
		if l.reconciler != nil {
			l.reconciler.Enqueue(authorID)
		}
	}
}
