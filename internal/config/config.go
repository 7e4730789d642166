// Package config reads server configuration from the environment.
// main loads .env via godotenv first; everything here is plain env vars
// with sensible development defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/murmurapp/backend/internal/feed"
	"github.com/murmurapp/backend/internal/progression"
	"github.com/murmurapp/backend/internal/scoring"
)

// Config is the full server configuration.
type Config struct {
	// Server
	Port     string
	LogLevel string
	LogFile  string

	// Database
	DatabaseURL    string
	DatabaseDriver string // "postgres" (default) or "sqlite"

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret string

	// Declared backend capability: set false while the compound
	// (created_at window, created_at DESC) index is still provisioning
	// to route trending through the fallback path.
	IndexedRecentQuery bool

	// Tracing
	OTLPEndpoint string
	TraceSample  float64

	Feed  feed.Config
	Curve progression.Curve
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:     envOrDefault("PORT", "8080"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
		LogFile:  envOrDefault("LOG_FILE", "server.log"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: envOrDefault("DATABASE_DRIVER", "postgres"),

		RedisHost:     envOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     envOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		IndexedRecentQuery: envBool("INDEXED_RECENT_QUERY", true),

		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		TraceSample:  envFloat("TRACE_SAMPLE_RATE", 0.1),

		Feed: feed.Config{
			PageSize:         envInt("FEED_PAGE_SIZE", 5),
			Window:           envDuration("FEED_WINDOW", 24*time.Hour),
			FallbackRowCap:   envInt("FEED_FALLBACK_ROW_CAP", 500),
			AuthorBatchLimit: envInt("FEED_AUTHOR_BATCH_LIMIT", 10),
			FetchTimeout:     envDuration("FEED_FETCH_TIMEOUT", 3*time.Second),
			SessionTTL:       envDuration("FEED_SESSION_TTL", 10*time.Minute),
			Weights: scoring.Weights{
				CommentWeight: envFloat("SCORE_COMMENT_WEIGHT", scoring.DefaultCommentWeight),
				TimeOffset:    envFloat("SCORE_TIME_OFFSET", scoring.DefaultTimeOffset),
				Gravity:       envFloat("SCORE_GRAVITY", scoring.DefaultGravity),
			},
			Spam: scoring.SpamFilter{
				Threshold: envInt("SPAM_REPUTATION_THRESHOLD", scoring.DefaultSpamThreshold),
			},
		},
		Curve: progression.Curve{
			Base:     envInt("PROGRESSION_BASE_XP", progression.DefaultBase),
			MaxLevel: envInt("PROGRESSION_MAX_LEVEL", progression.DefaultMaxLevel),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
