package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/murmurapp/backend/internal/cache"
	"github.com/murmurapp/backend/internal/config"
	"github.com/murmurapp/backend/internal/database"
	"github.com/murmurapp/backend/internal/feed"
	"github.com/murmurapp/backend/internal/handlers"
	"github.com/murmurapp/backend/internal/logger"
	"github.com/murmurapp/backend/internal/middleware"
	"github.com/murmurapp/backend/internal/reconcile"
	"github.com/murmurapp/backend/internal/store"
	"github.com/murmurapp/backend/internal/telemetry"
	"github.com/murmurapp/backend/internal/votes"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	// Database
	if err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Tracing (no-op unless OTLP_ENDPOINT is set)
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "murmur-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TraceSample,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	// Redis backs feed sessions and the author cache. Without it the
	// server still runs: sessions fall back to process-local memory,
	// enrichment goes straight to the database.
	var (
		sessions    feed.SessionStore
		authorCache feed.AuthorCache
	)
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis unavailable, using in-process feed sessions", zap.Error(err))
		sessions = feed.NewMemorySessionStore()
	} else {
		defer redisClient.Close()
		sessions = feed.NewRedisSessionStore(redisClient)
		authorCache = feed.NewRedisAuthorCache(redisClient)
	}

	// Core services
	st := store.NewGormStore(database.DB, cfg.IndexedRecentQuery)

	reconciler := reconcile.NewWorker(st)
	reconciler.Start()
	defer reconciler.Stop()

	ledger := votes.NewLedger(st, cfg.Curve)
	ledger.SetReconciler(reconciler)
	aggregator := feed.NewAggregator(st, sessions, authorCache, cfg.Feed)
	h := handlers.NewHandlers(aggregator, ledger, cfg.Curve)

	// Router
	r := gin.Default()
	r.Use(otelgin.Middleware("murmur-backend"))
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "murmur-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RequireAuth([]byte(cfg.JWTSecret)))
	{
		api.GET("/feed", h.GetFeed)

		posts := api.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.PUT("/:id", h.EditPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/vote", h.VotePost)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", h.GetUserProfile)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
}
