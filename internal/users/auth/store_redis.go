// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/cache"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
)

// # Session Repository

// RedisSessionRepository implements [SessionRepository] on the namespaced cache.
//
// Sessions live under "session:<id>" with a sliding expiry.
type RedisSessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(cache *cache.Cache) *RedisSessionRepository {
	return &RedisSessionRepository{cache: cache}
}

/*
Save stores the session state with its TTL.

Parameters:
  - context: context.Context
  - session: *Session
  - ttl: time.Duration

Returns:
  - error: Transport failures
*/
func (repository *RedisSessionRepository) Save(context context.Context, session *Session, ttl time.Duration) error {
	if err := repository.cache.Put(context, constants.CacheNamespaceSession, session.ID, session, ttl); err != nil {
		return fmt.Errorf("redis_session_save_failed: %w", err)
	}
	return nil
}

/*
Find loads a session and refreshes its TTL.

Description: Incomplete entries are dropped and reported as absent so a session
is never half present.

Parameters:
  - context: context.Context
  - id: string
  - ttl: time.Duration

Returns:
  - *Session: nil when absent
  - error: Transport failures
*/
func (repository *RedisSessionRepository) Find(context context.Context, id string, ttl time.Duration) (*Session, error) {
	session := &Session{}

	found, err := repository.cache.Get(context, constants.CacheNamespaceSession, id, session)
	if err != nil {
		return nil, fmt.Errorf("redis_session_find_failed: %w", err)
	}
	if !found {
		return nil, nil
	}

	session.ID = id
	if !session.Valid() {
		_ = repository.cache.Delete(context, constants.CacheNamespaceSession, id)
		return nil, nil
	}

	if _, err := repository.cache.Touch(context, constants.CacheNamespaceSession, id, ttl); err != nil {
		return nil, fmt.Errorf("redis_session_touch_failed: %w", err)
	}

	return session, nil
}

// Delete removes the session state.
func (repository *RedisSessionRepository) Delete(context context.Context, id string) error {
	if err := repository.cache.Delete(context, constants.CacheNamespaceSession, id); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

// # User Cache

// RedisUserCache implements [UserCache] under the "user" namespace with a fixed TTL.
type RedisUserCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewUserCache creates a user cache with the standard one hour TTL.
func NewUserCache(cache *cache.Cache) *RedisUserCache {
	return &RedisUserCache{cache: cache, ttl: constants.UserCacheTTL}
}

// Get returns the cached projection for id, or nil on a miss.
func (userCache *RedisUserCache) Get(context context.Context, id string) (*User, error) {
	user := &User{}
	found, err := userCache.cache.Get(context, constants.CacheNamespaceUser, id, user)
	if err != nil {
		return nil, fmt.Errorf("redis_user_cache_get_failed: %w", err)
	}
	if !found {
		return nil, nil
	}
	return user, nil
}

// Put stores the projection of user, versioned by UpdatedAt. An older
// projection than the one last accepted is skipped. The password hash never
// reaches the cache.
func (userCache *RedisUserCache) Put(context context.Context, user *User) error {
	_, err := userCache.cache.PutVersioned(context, constants.CacheNamespaceUser, user.ID, user,
		user.UpdatedAt.UnixMicro(), userCache.ttl)
	if err != nil {
		return fmt.Errorf("redis_user_cache_put_failed: %w", err)
	}
	return nil
}

// Delete drops the cached projection for id.
func (userCache *RedisUserCache) Delete(context context.Context, id string) error {
	if err := userCache.cache.Delete(context, constants.CacheNamespaceUser, id); err != nil {
		return fmt.Errorf("redis_user_cache_delete_failed: %w", err)
	}
	return nil
}

// NoopUserCache is used when USER_CACHE_ENABLED is false. Every read misses.
type NoopUserCache struct{}

func (NoopUserCache) Get(context.Context, string) (*User, error) { return nil, nil }
func (NoopUserCache) Put(context.Context, *User) error           { return nil }
func (NoopUserCache) Delete(context.Context, string) error       { return nil }

// # Write-Through

/*
WriteThrough refreshes the cached projection after a confirmed store write.

Description: The put is ordered by UpdatedAt, so when two mutations race the
projection of the later store write is the one left in the cache. If the put
fails the entry is evicted instead. Only when the eviction fails too does the
operation report an error.

Parameters:
  - context: context.Context
  - userCache: UserCache
  - user: *User (as returned by the store)

Returns:
  - error: apperr.Internal when neither put nor evict succeeded
*/
func WriteThrough(context context.Context, userCache UserCache, user *User) error {
	putErr := userCache.Put(context, user)
	if putErr == nil {
		return nil
	}

	if err := userCache.Delete(context, user.ID); err != nil {
		return apperr.Internal(errors.Join(putErr, err))
	}

	ctxutil.GetLogger(context).WarnContext(context, "user_cache_write_through_evicted",
		slog.String("user_id", user.ID),
		slog.Any("error", putErr),
	)
	return nil
}
