// murmur-seed fills a development database with fake users, posts,
// follows, and vote state. With --dry-run it builds the data set in
// memory and prints a sample trending page instead of writing anything.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/murmurapp/backend/internal/config"
	"github.com/murmurapp/backend/internal/database"
	"github.com/murmurapp/backend/internal/feed"
	"github.com/murmurapp/backend/internal/seed"
	"github.com/murmurapp/backend/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	var (
		users        int
		postsPerUser int
		fanout       int
		dryRun       bool
	)

	rootCmd := &cobra.Command{
		Use:   "murmur-seed",
		Short: "Seed the development database with fake social data",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := seed.Options{
				Users:        users,
				PostsPerUser: postsPerUser,
				FollowFanout: fanout,
			}

			if dryRun {
				return dryRunPreview(opts)
			}

			if err := godotenv.Load(); err != nil {
				log.Println("Warning: .env file not found, using system environment variables")
			}
			cfg := config.Load()

			if err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
				return err
			}
			defer database.Close()
			if err := database.Migrate(); err != nil {
				return err
			}

			if err := seed.Run(database.DB, opts); err != nil {
				return err
			}
			fmt.Printf("Seeded %d users with %d posts each\n", users, postsPerUser)
			return nil
		},
	}

	rootCmd.Flags().IntVar(&users, "users", seed.DefaultOptions().Users, "number of users to create")
	rootCmd.Flags().IntVar(&postsPerUser, "posts", seed.DefaultOptions().PostsPerUser, "posts per user")
	rootCmd.Flags().IntVar(&fanout, "fanout", seed.DefaultOptions().FollowFanout, "follows per user")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate in memory and print a sample trending page")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dryRunPreview aggregates a trending page over the generated data using
// the in-memory store, so the ranking can be eyeballed without a database.
func dryRunPreview(opts seed.Options) error {
	users, posts, follows := seed.Generate(opts)

	st := store.NewMemoryStore()
	for _, u := range users {
		st.PutUser(u)
	}
	for _, p := range posts {
		st.PutPost(p)
	}
	for _, f := range follows {
		st.PutFollow(f.FollowerID, f.FolloweeID)
	}

	agg := feed.NewAggregator(st, feed.NewMemorySessionStore(), nil, feed.DefaultConfig())
	page, err := agg.GetPage(context.Background(), users[0].ID, feed.ModeTrending, "")
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d users, %d posts, %d follows\n", len(users), len(posts), len(follows))
	fmt.Println("Sample trending page:")
	for i, item := range page.Items {
		fmt.Printf("%2d. score=%.3f votes=%-4d comments=%-3d author=%s (rep %d)\n",
			i+1, item.Score, item.Post.VoteScore, item.Post.CommentCount,
			item.Author.Username, item.Author.Reputation)
	}
	return nil
}
