// Package store defines the persistence port the feed aggregator and vote
// ledger depend on, plus its adapters: a gorm adapter for postgres (sqlite
// in development) and an in-memory adapter for unit tests and dry runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/murmurapp/backend/internal/models"
)

// Typed errors the port can return. Callers branch on these, so adapters
// must wrap their driver errors into one of them where applicable.
var (
	// ErrNotFound - the requested record does not exist or is soft-deleted.
	ErrNotFound = errors.New("store: not found")

	// ErrUnsupportedQuery - the backend cannot serve the optimally-indexed
	// query (index still provisioning). The feed aggregator catches this and
	// routes to the unindexed fallback; it never reaches an API caller.
	ErrUnsupportedQuery = errors.New("store: unsupported query")

	// ErrConflict - a versioned read-modify-write lost the race too many
	// times. Retryable.
	ErrConflict = errors.New("store: version conflict")

	// ErrUnavailable - the backend could not be reached. Retryable.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// IsTransient reports whether an error is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Capabilities declares which query paths the backend currently supports.
// The feed aggregator probes this before choosing the primary trending
// query, instead of relying on catch-all error handling.
type Capabilities struct {
	// IndexedRecentQuery is true when the compound window-filter+sort can
	// be pushed down to the store.
	IndexedRecentQuery bool
}

// PostStore is the post-side persistence port.
type PostStore interface {
	// QueryRecentPosts returns non-deleted posts created at or after since,
	// newest first, capped at limit. Returns ErrUnsupportedQuery when the
	// backing index is unavailable.
	QueryRecentPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error)

	// QueryRecentPostsUnindexed is the degraded fallback: an unsorted batch
	// capped at limit with no time-window predicate. The caller filters by
	// window and soft-delete flag locally. It must converge to the same
	// logical result set as the primary path.
	QueryRecentPostsUnindexed(ctx context.Context, limit int) ([]models.Post, error)

	// QueryPostsByAuthors returns non-deleted posts by any of the given
	// authors, newest first. Callers are responsible for chunking authorIDs
	// to the backend's any-of batch limit.
	QueryPostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error)

	GetPost(ctx context.Context, id string) (*models.Post, error)

	// UpdatePost applies fn under the per-document serialization point
	// (version CAS with bounded retries). fn sees a fresh copy on every
	// attempt and must be idempotent. No lost updates between concurrent
	// callers on the same post.
	UpdatePost(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error)
}

// AuthorStore is the author-side persistence port.
type AuthorStore interface {
	GetAuthor(ctx context.Context, id string) (*models.User, error)
	GetAuthors(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdateAuthor is the author-record analogue of UpdatePost. It is not
	// transactionally joined to any post update; see the vote ledger for
	// how partial application is handled.
	UpdateAuthor(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
}

// FollowStore exposes the read-only follow relation.
type FollowStore interface {
	// Following returns the IDs of everyone userID follows.
	Following(ctx context.Context, userID string) ([]string, error)
}

// Store is the full persistence port.
type Store interface {
	PostStore
	AuthorStore
	FollowStore
	Capabilities() Capabilities
}
