package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/murmurapp/backend/internal/models"
	"gorm.io/gorm"
)

// casAttempts bounds the optimistic-concurrency loop inside a single
// read-modify-write call. Conflicts beyond this surface as ErrConflict.
const casAttempts = 5

// GormStore implements Store on top of a gorm-managed database
// (postgres in production, sqlite in development).
type GormStore struct {
	db   *gorm.DB
	caps Capabilities
}

// NewGormStore wraps db. indexedRecent declares whether the compound
// (created_at window, created_at DESC) index is available; while it is
// still provisioning the trending feed runs on the fallback path.
func NewGormStore(db *gorm.DB, indexedRecent bool) *GormStore {
	return &GormStore{
		db:   db,
		caps: Capabilities{IndexedRecentQuery: indexedRecent},
	}
}

func (s *GormStore) Capabilities() Capabilities {
	return s.caps
}

func (s *GormStore) QueryRecentPosts(ctx context.Context, since time.Time, limit int) ([]models.Post, error) {
	if !s.caps.IndexedRecentQuery {
		return nil, ErrUnsupportedQuery
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *GormStore) QueryRecentPostsUnindexed(ctx context.Context, limit int) ([]models.Post, error) {
	// Degraded path: a capped batch with no window predicate and no
	// soft-delete filter pushed down. The aggregator applies both locally,
	// so the logical result set matches the primary path.
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Unscoped().
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *GormStore) QueryPostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *GormStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		var post models.Post
		if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
			return nil, translate(err)
		}

		prev := post.Version
		if err := fn(&post); err != nil {
			return nil, err
		}
		post.Version = prev + 1

		res := s.db.WithContext(ctx).
			Model(&post).
			Where("version = ?", prev).
			Select("*").
			Omit("created_at").
			Updates(post)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 1 {
			return &post, nil
		}

		// Lost the race against a concurrent writer; re-read and re-apply.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 5 * time.Millisecond):
		}
	}
	return nil, ErrConflict
}

func (s *GormStore) GetAuthor(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetAuthors(ctx context.Context, ids []string) (map[string]*models.User, error) {
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}

	out := make(map[string]*models.User, len(users))
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *GormStore) UpdateAuthor(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			return nil, translate(err)
		}

		prev := user.Version
		if err := fn(&user); err != nil {
			return nil, err
		}
		user.Version = prev + 1

		res := s.db.WithContext(ctx).
			Model(&user).
			Where("version = ?", prev).
			Select("*").
			Omit("created_at").
			Updates(user)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 1 {
			return &user, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 5 * time.Millisecond):
		}
	}
	return nil, ErrConflict
}

func (s *GormStore) Following(ctx context.Context, userID string) ([]string, error) {
	var followeeIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &followeeIDs).Error
	if err != nil {
		return nil, translate(err)
	}
	return followeeIDs, nil
}

// translate maps driver errors onto the port's typed errors. Connection
// failures become ErrUnavailable so IsTransient routes them through the
// retry path instead of surfacing them as 500s.
func translate(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, driver.ErrBadConn), errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
