// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sigepsi/portal/internal/platform/constants"
)

// RedisStore implements [TokenStore] on Redis, namespaced per browser session.
//
// # Resilience
//
// The [TokenStore] contract is total: Redis failures are logged and absorbed.
// A read failure reads as "logged out"; a write failure means the session
// will not survive a portal restart. Neither is surfaced to callers.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisStore creates a Redis-backed token store for one browser session.
//
// # Parameters
//   - client: Shared Redis client.
//   - sessionID: Browser session identifier used as the key namespace.
//   - logger: Structured logger for absorbed failures.
func NewRedisStore(client *redis.Client, sessionID string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: constants.RedisPrefixSession + sessionID + ":",
		logger:    logger,
	}
}

/*
Get returns the stored value for key, or "" when absent or unreachable.

Parameters:
  - context: context.Context
  - key: string
*/
func (store *RedisStore) Get(context context.Context, key string) string {
	value, err := store.client.Get(context, store.keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			store.logger.Warn("token_store_read_failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return ""
	}
	return value
}

/*
Set stores value under key with the session cookie TTL. An empty value
deletes the entry. Failures are logged and absorbed.

Parameters:
  - context: context.Context
  - key: string
  - value: string
*/
func (store *RedisStore) Set(context context.Context, key string, value string) {
	var err error
	if value == "" {
		err = store.client.Del(context, store.keyPrefix+key).Err()
	} else {
		err = store.client.Set(context, store.keyPrefix+key, value, constants.SessionCookieTTL).Err()
	}

	if err != nil {
		store.logger.Warn("token_store_write_failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
