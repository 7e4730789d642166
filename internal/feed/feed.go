// Package feed builds the ranked, cursor-paginated home feed.
//
// Two modes: trending ranks a recent-window candidate set by hot score;
// following shows posts from followed authors in pure recency order. A
// fresh aggregation computes the full ordering once and parks it in a feed
// session; "load more" slices the same stored ordering, so items never
// shift between pages as new posts arrive mid-session.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/murmurapp/backend/internal/logger"
	"github.com/murmurapp/backend/internal/metrics"
	"github.com/murmurapp/backend/internal/models"
	"github.com/murmurapp/backend/internal/scoring"
	"github.com/murmurapp/backend/internal/store"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Mode selects the feed variant.
type Mode string

const (
	ModeTrending  Mode = "trending"
	ModeFollowing Mode = "following"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTrending || m == ModeFollowing
}

// Author is the display identity attached to each feed item at render time.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Reputation  int    `json:"reputation"`
	Level       int    `json:"level"`
	// Placeholder marks an author whose lookup failed; the item still
	// renders, the page does not fail.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Item is one entry in a feed page.
type Item struct {
	Post   models.Post `json:"post"`
	Author Author      `json:"author"`
	Score  float64     `json:"score,omitempty"` // hot score, trending only
}

// Page is the result of a GetPage call.
type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	// EmptyFollowing distinguishes "you follow no one" from an empty or
	// still-loading result, so clients can render the right state.
	EmptyFollowing bool `json:"empty_following,omitempty"`
}

// Config holds the aggregation tunables.
type Config struct {
	PageSize         int           // items per page
	Window           time.Duration // trending recent-window
	FallbackRowCap   int           // row cap for candidate queries
	AuthorBatchLimit int           // max IDs per any-of backend query
	FetchTimeout     time.Duration // per sub-fetch deadline
	SessionTTL       time.Duration // how long a parked ordering stays valid
	Weights          scoring.Weights
	Spam             scoring.SpamFilter
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		PageSize:         5,
		Window:           24 * time.Hour,
		FallbackRowCap:   500,
		AuthorBatchLimit: 10,
		FetchTimeout:     3 * time.Second,
		SessionTTL:       10 * time.Minute,
		Weights:          scoring.DefaultWeights(),
		Spam:             scoring.DefaultSpamFilter(),
	}
}

// Aggregator builds feed pages from the persistence port.
type Aggregator struct {
	store    store.Store
	sessions SessionStore
	authors  AuthorCache // may be nil; lookups then go straight to the store
	cfg      Config
	now      func() time.Time
}

// NewAggregator wires an aggregator. authors may be nil.
func NewAggregator(s store.Store, sessions SessionStore, authors AuthorCache, cfg Config) *Aggregator {
	return &Aggregator{
		store:    s,
		sessions: sessions,
		authors:  authors,
		cfg:      cfg,
		now:      time.Now,
	}
}

// GetPage returns one page of the viewer's feed. An empty cursor starts a
// fresh aggregation; a cursor from a previous page continues the same
// stored ordering. An expired or foreign cursor silently degrades to a
// fresh aggregation.
func (a *Aggregator) GetPage(ctx context.Context, viewerID string, mode Mode, cursor string) (*Page, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("feed: unknown mode %q", mode)
	}

	if cursor != "" {
		page, ok, err := a.continuePage(ctx, mode, cursor)
		if err != nil {
			return nil, err
		}
		if ok {
			metrics.RecordFeedPage(string(mode), "continuation")
			return page, nil
		}
		logger.Log.Debug("feed cursor expired, recomputing",
			zap.String("viewer_id", viewerID),
			zap.String("mode", string(mode)))
	}

	page, err := a.freshPage(ctx, viewerID, mode)
	if err != nil {
		return nil, err
	}
	metrics.RecordFeedPage(string(mode), "fresh")
	return page, nil
}

// freshPage computes the full candidate ordering, parks it in a session,
// and returns the first slice.
func (a *Aggregator) freshPage(ctx context.Context, viewerID string, mode Mode) (*Page, error) {
	started := a.now()

	var (
		posts []models.Post
		err   error
	)
	switch mode {
	case ModeFollowing:
		var empty bool
		posts, empty, err = a.followingCandidates(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if empty {
			return &Page{Items: []Item{}, EmptyFollowing: true}, nil
		}
	default:
		posts, err = a.trendingCandidates(ctx)
		if err != nil {
			return nil, err
		}
	}

	authors := a.authorsFor(ctx, posts)

	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		author, known := authors[p.UserID]
		if known && !a.cfg.Spam.Admissible(author.Reputation) {
			// Hard exclusion: suppressed authors never enter the
			// ranked set. Unknown reputation fails open.
			continue
		}
		item := Item{Post: p, Author: toAuthor(p.UserID, author)}
		if mode == ModeTrending {
			item.Score = a.cfg.Weights.HotScore(p.VoteScore, p.CommentCount, p.CreatedAt, a.now())
		}
		items = append(items, item)
	}

	a.rank(items, mode)

	metrics.RecordFeedGeneration(string(mode), a.now().Sub(started).Seconds())

	// Park the full ordering so later pages slice the same sequence.
	sessionID := uuid.New().String()
	ids := lo.Map(items, func(it Item, _ int) string { return it.Post.ID })
	if err := a.sessions.Save(ctx, sessionID, ids, a.cfg.SessionTTL); err != nil {
		// A page with no continuation beats no page at all.
		logger.Log.Warn("failed to park feed session", zap.Error(err))
		sessionID = ""
	}

	page := &Page{Items: items}
	if len(page.Items) > a.cfg.PageSize {
		page.Items = page.Items[:a.cfg.PageSize]
	}
	page.HasMore = len(items) > len(page.Items)
	if page.HasMore && sessionID != "" {
		page.NextCursor = encodeCursor(mode, sessionID, len(page.Items))
	}
	return page, nil
}

// continuePage serves a "load more" slice from a previously parked
// ordering. ok=false means the session is gone and the caller should
// recompute.
func (a *Aggregator) continuePage(ctx context.Context, mode Mode, cursor string) (*Page, bool, error) {
	cursorMode, sessionID, offset, err := decodeCursor(cursor)
	if err != nil || cursorMode != mode {
		return nil, false, nil
	}

	ids, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		if err == ErrSessionNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if offset >= len(ids) {
		return &Page{Items: []Item{}}, true, nil
	}

	end := offset + a.cfg.PageSize
	if end > len(ids) {
		end = len(ids)
	}

	posts := make([]models.Post, 0, end-offset)
	for _, id := range ids[offset:end] {
		p, gerr := a.store.GetPost(ctx, id)
		if gerr != nil {
			// Deleted since the ordering was computed; drop it rather
			// than failing the page.
			continue
		}
		posts = append(posts, *p)
	}

	authors := a.authorsFor(ctx, posts)
	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		item := Item{Post: p, Author: toAuthor(p.UserID, authors[p.UserID])}
		if mode == ModeTrending {
			item.Score = a.cfg.Weights.HotScore(p.VoteScore, p.CommentCount, p.CreatedAt, a.now())
		}
		items = append(items, item)
	}

	page := &Page{Items: items, HasMore: end < len(ids)}
	if page.HasMore {
		page.NextCursor = encodeCursor(mode, sessionID, end)
	}
	return page, true, nil
}

// trendingCandidates queries the recent window, falling back to the
// unindexed path when the store can't serve the indexed query. Both paths
// converge to the same logical set: non-deleted posts inside the window.
func (a *Aggregator) trendingCandidates(ctx context.Context) ([]models.Post, error) {
	since := a.now().Add(-a.cfg.Window)

	if a.store.Capabilities().IndexedRecentQuery {
		var posts []models.Post
		err := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
			defer cancel()
			var qerr error
			posts, qerr = a.store.QueryRecentPosts(fetchCtx, since, a.cfg.FallbackRowCap)
			return qerr
		})
		switch {
		case err == nil:
			return posts, nil
		case err == store.ErrUnsupportedQuery:
			// Capability flag lied (index dropped mid-flight); degrade.
		default:
			return nil, err
		}
	}

	// Degraded path: generous unsorted batch, window and soft-delete
	// filters applied locally. Set semantics must match the primary path.
	metrics.RecordFeedFallback()
	logger.Log.Warn("trending feed on unindexed fallback path")

	var batch []models.Post
	err := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
		var qerr error
		batch, qerr = a.store.QueryRecentPostsUnindexed(fetchCtx, a.cfg.FallbackRowCap)
		return qerr
	})
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(batch))
	for _, p := range batch {
		if p.DeletedAt.Valid || p.CreatedAt.Before(since) {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// followingCandidates fans out batched any-of queries over the viewer's
// follow set and joins the results. empty=true means the viewer follows
// no one.
func (a *Aggregator) followingCandidates(ctx context.Context, viewerID string) (posts []models.Post, empty bool, err error) {
	var followees []string
	err = store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
		var qerr error
		followees, qerr = a.store.Following(fetchCtx, viewerID)
		return qerr
	})
	if err != nil {
		return nil, false, err
	}
	if len(followees) == 0 {
		return nil, true, nil
	}

	// Parallel fan-out per batch, single join point. The backend caps
	// any-of queries, so the caller chunks.
	type result struct {
		posts []models.Post
		err   error
	}

	chunks := lo.Chunk(lo.Uniq(followees), a.cfg.AuthorBatchLimit)
	results := make(chan result, len(chunks))
	for _, chunk := range chunks {
		go func(authorIDs []string) {
			var batch []models.Post
			rerr := store.WithRetry(ctx, store.DefaultMaxRetries, func() error {
				fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
				defer cancel()
				var qerr error
				batch, qerr = a.store.QueryPostsByAuthors(fetchCtx, authorIDs, a.cfg.FallbackRowCap)
				return qerr
			})
			results <- result{posts: batch, err: rerr}
		}(chunk)
	}

	var merged []models.Post
	for range chunks {
		r := <-results
		if r.err != nil {
			// A missing batch would silently hide followed authors, so
			// the whole page fails rather than degrade.
			return nil, false, r.err
		}
		merged = append(merged, r.posts...)
	}

	merged = lo.UniqBy(merged, func(p models.Post) string { return p.ID })
	return merged, false, nil
}

// authorsFor resolves display identities for the posts' authors, batched
// and cached. Failures leave entries missing; callers render placeholders
// and admission fails open.
func (a *Aggregator) authorsFor(ctx context.Context, posts []models.Post) map[string]*models.User {
	ids := lo.Uniq(lo.Map(posts, func(p models.Post, _ int) string { return p.UserID }))

	out := make(map[string]*models.User, len(ids))
	var misses []string
	for _, id := range ids {
		if a.authors != nil {
			if u, ok := a.authors.Get(ctx, id); ok {
				out[id] = u
				continue
			}
		}
		misses = append(misses, id)
	}

	for _, chunk := range lo.Chunk(misses, a.cfg.AuthorBatchLimit) {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		users, err := a.store.GetAuthors(fetchCtx, chunk)
		cancel()
		if err != nil {
			// Partial enrichment failure: those items get placeholder
			// authors, the page still returns.
			logger.Log.Warn("author enrichment batch failed",
				zap.Int("batch_size", len(chunk)),
				zap.Error(err))
			continue
		}
		for id, u := range users {
			out[id] = u
			if a.authors != nil {
				a.authors.Set(ctx, u)
			}
		}
	}
	return out
}

// rank sorts items by the mode's key with a total order: trending by hot
// score, both modes tie-broken by createdAt descending then ID ascending
// so pagination is stable.
func (a *Aggregator) rank(items []Item, mode Mode) {
	sort.Slice(items, func(i, j int) bool {
		if mode == ModeTrending && items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		ti, tj := items[i].Post.CreatedAt, items[j].Post.CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return items[i].Post.ID < items[j].Post.ID
	})
}

func toAuthor(authorID string, u *models.User) Author {
	if u == nil {
		return Author{ID: authorID, Username: "unknown", DisplayName: "Unknown", Placeholder: true}
	}
	return Author{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Reputation:  u.Reputation,
		Level:       u.Level,
	}
}

// Cursor format: "<mode>:<session uuid>:<offset>". Opaque to clients.

func encodeCursor(mode Mode, sessionID string, offset int) string {
	return fmt.Sprintf("%s:%s:%d", mode, sessionID, offset)
}

func decodeCursor(cursor string) (Mode, string, int, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("feed: malformed cursor")
	}
	offset, err := strconv.Atoi(parts[2])
	if err != nil || offset < 0 {
		return "", "", 0, fmt.Errorf("feed: malformed cursor offset")
	}
	return Mode(parts[0]), parts[1], offset, nil
}
