// Package store provides storage backends for the chatbot.
//
// This file implements a Redis-backed session store. Sessions are stored as
// JSON values under a keyspace prefix, with no expiry: retention semantics
// match the in-memory backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

const sessionKeyPrefix = "session:"

// RedisStore persists sessions as JSON values in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a new Redis store from a redis:// DSN.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewRedisStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("RedisStore DSN not set")
		return nil, fmt.Errorf("redis DSN not set")
	}

	redisOpts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		slog.Error("Failed to parse Redis DSN", "error", err)
		return nil, fmt.Errorf("failed to parse redis DSN: %w", err)
	}

	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err)
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Debug("Redis connection established")

	return &RedisStore{rdb: rdb}, nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// GetSession retrieves the session for a user id, or nil if absent.
func (s *RedisStore) GetSession(userID string) (*models.Session, error) {
	data, err := s.rdb.Get(context.Background(), sessionKey(userID)).Bytes()
	if err == redis.Nil {
		slog.Debug("RedisStore GetSession not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Error("RedisStore GetSession JSON unmarshal failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to unmarshal session for %s: %w", userID, err)
	}
	slog.Debug("RedisStore GetSession succeeded", "userID", userID, "turns", len(session.Turns))
	return &session, nil
}

// SaveSession stores or replaces the session for its user id.
func (s *RedisStore) SaveSession(session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		slog.Error("RedisStore SaveSession JSON marshal failed", "error", err, "userID", session.UserID)
		return fmt.Errorf("failed to marshal session for %s: %w", session.UserID, err)
	}

	if err := s.rdb.Set(context.Background(), sessionKey(session.UserID), data, 0).Err(); err != nil {
		slog.Error("RedisStore SaveSession failed", "error", err, "userID", session.UserID)
		return fmt.Errorf("failed to save session for %s: %w", session.UserID, err)
	}
	slog.Debug("RedisStore SaveSession succeeded", "userID", session.UserID)
	return nil
}

// DeleteSession removes the session for a user id.
func (s *RedisStore) DeleteSession(userID string) error {
	if err := s.rdb.Del(context.Background(), sessionKey(userID)).Err(); err != nil {
		slog.Error("RedisStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("RedisStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
