// Package reconcile repairs author reputation drift. The vote ledger's
// reputation side effect is not atomic with the post update; when it fails
// the vote stands and the author record is stale. The worker rebuilds
// reputation from the standing vote state of the author's posts.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/murmurapp/backend/internal/logger"
	"github.com/murmurapp/backend/internal/metrics"
	"github.com/murmurapp/backend/internal/models"
	"github.com/murmurapp/backend/internal/store"
	"go.uber.org/zap"
)

const (
	defaultWorkers = 2
	jobBuffer      = 256
	// Row cap for the per-author post scan. An author with more posts than
	// this gets a partial rebuild, which is still closer than the drifted
	// value.
	postScanCap = 5000
)

// Worker consumes author IDs and rebuilds their reputation records.
type Worker struct {
	store store.Store

	jobs    chan string
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]bool
	closed  bool
}

// NewWorker returns a stopped worker over s.
func NewWorker(s store.Store) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:   s,
		jobs:    make(chan string, jobBuffer),
		workers: defaultWorkers,
		ctx:     ctx,
		cancel:  cancel,
		pending: map[string]bool{},
	}
}

// Start launches the worker pool.
func (w *Worker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	logger.Log.Info("Reconciliation worker started", zap.Int("workers", w.workers))
}

// Stop cancels in-flight rebuilds and waits for the pool to drain.
// Enqueue calls racing or following Stop are dropped.
func (w *Worker) Stop() {
	w.cancel()
	w.mu.Lock()
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

// Enqueue schedules a rebuild for authorID. Non-blocking: an author already
// queued is skipped, and a full queue drops the job with a warning. A
// dropped job only delays the repair until the next anomaly on the same
// author.
func (w *Worker) Enqueue(authorID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.pending[authorID] {
		return
	}
	select {
	case w.jobs <- authorID:
		w.pending[authorID] = true
	default:
		logger.Log.Warn("reconciliation queue full, dropping job",
			zap.String("author_id", authorID))
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for authorID := range w.jobs {
		w.mu.Lock()
		delete(w.pending, authorID)
		w.mu.Unlock()

		if w.ctx.Err() != nil {
			return
		}
		if err := w.reconcile(w.ctx, authorID); err != nil {
			logger.Log.Error("reputation rebuild failed",
				zap.String("author_id", authorID),
				zap.Error(err))
		}
	}
}

// errNoChange aborts the read-modify-write when the stored reputation
// already matches the rebuilt value, so a consistent record is never
// rewritten and its version never moves.
var errNoChange = errors.New("reconcile: no change")

// reconcile rebuilds the author's reputation as the sum of vote scores over
// their non-deleted posts. Points and Level are monotonic and derived from
// accrual history, so they are left alone.
func (w *Worker) reconcile(ctx context.Context, authorID string) error {
	err := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
		// Scan inside the retry loop: a lost CAS race re-scans, so votes
		// that landed since the previous attempt are counted. A vote
		// committing between the scan and the write can still be
		// overwritten with the stale sum; the next anomaly on the author
		// re-enqueues and converges.
		posts, qerr := w.store.QueryPostsByAuthors(ctx, []string{authorID}, postScanCap)
		if qerr != nil {
			return qerr
		}

		rebuilt := 0
		for _, p := range posts {
			rebuilt += p.VoteScore
		}

		_, uerr := w.store.UpdateAuthor(ctx, authorID, func(u *models.User) error {
			if u.Reputation == rebuilt {
				return errNoChange
			}
			logger.Log.Info("repairing drifted reputation",
				zap.String("author_id", authorID),
				zap.Int("stored", u.Reputation),
				zap.Int("rebuilt", rebuilt))
			u.Reputation = rebuilt
			return nil
		})
		return uerr
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	metrics.RecordReconciliationRepair()
	return nil
}
