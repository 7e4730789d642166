package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/murmurapp/backend/internal/models"
)

// MemoryStore is an in-process Store with the same versioned
// read-modify-write semantics as the gorm adapter. Unit tests and
// `murmur-seed --dry-run` use it; nothing network-facing does.
type MemoryStore struct {
	mu      sync.Mutex
	posts   map[string]*models.Post
	users   map[string]*models.User
	follows map[string][]string // followerID -> followeeIDs
	caps    Capabilities

	// Failure injection for tests.
	RecentErr error                  // returned by QueryRecentPosts when set
	AuthorErr func(id string) error  // consulted by GetAuthor/GetAuthors
}

// NewMemoryStore returns an empty store with the indexed query path enabled.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:   map[string]*models.Post{},
		users:   map[string]*models.User{},
		follows: map[string][]string{},
		caps:    Capabilities{IndexedRecentQuery: true},
	}
}

// SetIndexedRecentQuery flips the capability probe, forcing the trending
// feed onto the fallback path when false.
func (s *MemoryStore) SetIndexedRecentQuery(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps.IndexedRecentQuery = ok
}

func (s *MemoryStore) Capabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// PutPost inserts or replaces a post. Test/seed helper.
func (s *MemoryStore) PutPost(p models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = clonePost(&p)
}

// PutUser inserts or replaces a user. Test/seed helper.
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(&u)
}

// PutFollow records a follow edge. Test/seed helper.
func (s *MemoryStore) PutFollow(followerID, followeeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[followerID] = append(s.follows[followerID], followeeID)
}

func (s *MemoryStore) QueryRecentPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.IndexedRecentQuery {
		return nil, ErrUnsupportedQuery
	}
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}

	var out []models.Post
	for _, p := range s.posts {
		if p.DeletedAt.Valid || p.CreatedAt.Before(since) {
			continue
		}
		out = append(out, *clonePost(p))
	}
	sortNewestFirst(out)
	return capped(out, limit), nil
}

func (s *MemoryStore) QueryRecentPostsUnindexed(ctx context.Context, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Degraded path hands back everything, soft-deleted rows included;
	// filtering is the caller's job, same as the gorm adapter.
	var out []models.Post
	for _, p := range s.posts {
		out = append(out, *clonePost(p))
	}
	return capped(out, limit), nil
}

func (s *MemoryStore) QueryPostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		wanted[id] = true
	}

	var out []models.Post
	for _, p := range s.posts {
		if p.DeletedAt.Valid || !wanted[p.UserID] {
			continue
		}
		out = append(out, *clonePost(p))
	}
	sortNewestFirst(out)
	return capped(out, limit), nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

func (s *MemoryStore) UpdatePost(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		s.mu.Lock()
		cur, ok := s.posts[id]
		if !ok {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		next := clonePost(cur)
		prev := next.Version
		s.mu.Unlock()

		// fn runs outside the lock so concurrent writers genuinely race
		// and the CAS below does the serializing, as in the gorm adapter.
		if err := fn(next); err != nil {
			return nil, err
		}
		next.Version = prev + 1

		s.mu.Lock()
		cur, ok = s.posts[id]
		if ok && cur.Version == prev {
			s.posts[id] = clonePost(next)
			s.mu.Unlock()
			return next, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil, ErrConflict
}

func (s *MemoryStore) GetAuthor(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AuthorErr != nil {
		if err := s.AuthorErr(id); err != nil {
			return nil, err
		}
	}

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) GetAuthors(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		u, err := s.GetAuthor(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		out[id] = u
	}
	return out, nil
}

func (s *MemoryStore) UpdateAuthor(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		s.mu.Lock()
		cur, ok := s.users[id]
		if !ok {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		next := cloneUser(cur)
		prev := next.Version
		s.mu.Unlock()

		if err := fn(next); err != nil {
			return nil, err
		}
		next.Version = prev + 1

		s.mu.Lock()
		cur, ok = s.users[id]
		if ok && cur.Version == prev {
			s.users[id] = cloneUser(next)
			s.mu.Unlock()
			return next, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil, ErrConflict
}

func (s *MemoryStore) Following(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.follows[userID]))
	copy(out, s.follows[userID])
	return out, nil
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Media = append(models.StringArray(nil), p.Media...)
	c.Upvoters = append(models.StringArray(nil), p.Upvoters...)
	c.Downvoters = append(models.StringArray(nil), p.Downvoters...)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func sortNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func capped(posts []models.Post, limit int) []models.Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
