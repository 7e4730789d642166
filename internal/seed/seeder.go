// Package seed generates plausible development data: users with varied
// reputation, posts spread across the trending window, follows, and vote
// sets that respect the score invariant.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/murmurapp/backend/internal/models"
	"github.com/murmurapp/backend/internal/progression"
	"gorm.io/gorm"
)

// Options controls how much data the seeder creates.
type Options struct {
	Users        int
	PostsPerUser int
	FollowFanout int // follows created per user
}

// DefaultOptions returns a small but useful data set.
func DefaultOptions() Options {
	return Options{Users: 25, PostsPerUser: 4, FollowFanout: 5}
}

// Generate builds the data set in memory without touching a database.
func Generate(opts Options) ([]models.User, []models.Post, []models.Follow) {
	curve := progression.Default()

	users := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		points := rand.Intn(2000)
		reputation := points/4 - rand.Intn(40) // a few land below the spam floor
		users = append(users, models.User{
			ID:          uuid.New().String(),
			Username:    fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName: gofakeit.Name(),
			Bio:         gofakeit.Sentence(8),
			AvatarURL:   gofakeit.ImageURL(128, 128),
			Reputation:  reputation,
			Points:      points,
			Level:       curve.LevelOf(points).Level,
		})
	}

	var posts []models.Post
	for _, u := range users {
		for j := 0; j < opts.PostsPerUser; j++ {
			age := time.Duration(rand.Intn(36)) * time.Hour // some fall outside the window
			post := models.Post{
				ID:           uuid.New().String(),
				UserID:       u.ID,
				Body:         gofakeit.Sentence(12),
				CommentCount: rand.Intn(20),
				CreatedAt:    time.Now().UTC().Add(-age),
			}
			// Vote sets drawn from other users, keeping the invariant
			// voteScore == |upvoters| - |downvoters|.
			for _, voter := range users {
				if voter.ID == u.ID {
					continue
				}
				switch rand.Intn(10) {
				case 0, 1, 2:
					post.Upvoters = append(post.Upvoters, voter.ID)
				case 3:
					post.Downvoters = append(post.Downvoters, voter.ID)
				}
			}
			post.VoteScore = len(post.Upvoters) - len(post.Downvoters)
			posts = append(posts, post)
		}
	}

	var follows []models.Follow
	for _, u := range users {
		seen := map[string]bool{u.ID: true}
		for k := 0; k < opts.FollowFanout && k < len(users)-1; k++ {
			target := users[rand.Intn(len(users))]
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true
			follows = append(follows, models.Follow{
				FollowerID: u.ID,
				FolloweeID: target.ID,
			})
		}
	}

	return users, posts, follows
}

// Run writes a generated data set into the database.
func Run(db *gorm.DB, opts Options) error {
	users, posts, follows := Generate(opts)

	for _, u := range users {
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
	}
	for _, p := range posts {
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("seed post: %w", err)
		}
	}
	for _, f := range follows {
		if err := db.Create(&f).Error; err != nil {
			return fmt.Errorf("seed follow: %w", err)
		}
	}
	return nil
}
