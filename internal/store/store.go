// Package store provides session storage backends for the chatbot.
//
// The default backend is an in-memory map with process-lifetime retention and
// no eviction. SQLite, PostgreSQL, and Redis backends persist sessions as
// JSON documents so a durable store can be substituted without touching the
// conversation state machine.
package store

import (
	"strings"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// Store defines the session storage interface. GetSession returns nil (not
// an error) when no session exists for the user id.
type Store interface {
	// GetSession retrieves the session for a user id, or nil if absent.
	GetSession(userID string) (*models.Session, error)

	// SaveSession stores or replaces the session for its user id.
	SaveSession(session models.Session) error

	// DeleteSession removes the session for a user id. Deleting a missing
	// session is not an error.
	DeleteSession(userID string) error
}

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string (file path for SQLite,
	// postgres:// URL for PostgreSQL, redis:// URL for Redis).
	DSN string
}

// Option defines a functional option for configuring a store.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRedisDSN sets the Redis connection URL.
func WithRedisDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType determines the store backend implied by a DSN string.
// Returns "postgres", "redis", or "sqlite" (the fallback for file paths).
func DetectDSNType(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return "postgres"
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return "redis"
	default:
		return "sqlite"
	}
}
