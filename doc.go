// Package backend provides the Murmur API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/feed: Ranked feed aggregation and cursor pagination
// - internal/votes: Vote ledger and reputation side effects
// - internal/scoring: Hot score and spam admission rules
// - internal/progression: Points-to-level curve
// - internal/store: Persistence port and its gorm/in-memory adapters
// - internal/reconcile: Background reputation repair
// - internal/database: Database connection and migrations
// - internal/cache: Redis client wrapper
// - internal/middleware: HTTP middleware (auth, metrics)
// - internal/seed: Development data generation

// See the individual package documentation for detailed API reference.
package backend
