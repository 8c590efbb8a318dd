package redis

// Package redis provides Redis-based adapters for the portfolio system.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

var _ ports.AdminSessionStore = (*AdminSessionStore)(nil)

// AdminSessionStore is a Redis-based store for the admin-area sessions
// bound to browser cookies. It handles TTL semantics automatically based
// on the session's ExpiresAt.
type AdminSessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewAdminSessionStore creates a new Redis-based admin session store.
func NewAdminSessionStore(client redis.UniversalClient) *AdminSessionStore {
	return &AdminSessionStore{
		client: client,
		prefix: "admin_session:",
	}
}

// NewAdminSessionStoreWithPrefix creates a store with a custom key prefix.
func NewAdminSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *AdminSessionStore {
	return &AdminSessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *AdminSessionStore) Save(ctx context.Context, sess domainauth.AdminSession) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal admin session: %w", err)
	}

	key := s.prefix + sess.ID
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *AdminSessionStore) Get(ctx context.Context, id string) (domainauth.AdminSession, error) {
	if id == "" {
		return domainauth.AdminSession{}, ErrNotFound
	}

	key := s.prefix + id
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.AdminSession{}, ErrNotFound
		}
		return domainauth.AdminSession{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.AdminSession
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.AdminSession{}, fmt.Errorf("unmarshal admin session: %w", unmarshalErr)
	}

	// Double-check expiration (Redis TTL should handle this, but be defensive)
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.AdminSession{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.AdminSession{}, ErrNotFound
	}

	return sess, nil
}

func (s *AdminSessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	key := s.prefix + id
	return s.client.Del(ctx, key).Err()
}

// ErrNotFound is returned when a session is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "admin session not found" }

var ErrNotFound error = notFoundError{}
