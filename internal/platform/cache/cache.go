// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache implements a namespaced JSON key/value cache on Redis.

Keys are built as namespace + ":" + key. The cache is advisory: a miss never
means the underlying record is absent, and callers must fall back to the
primary store.

Failure policy:

  - Encoding failures on Put are logged and swallowed, leaving a miss behind.
  - Undecodable entries on Get are logged, dropped and reported as a miss.
  - Transport errors are returned to the caller.

Versioned writes ([Cache.PutVersioned]) keep the last accepted version in a
companion key, so a slow writer holding an older value cannot overwrite a newer
one.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/userhub/internal/platform/metrics"
)

// Cache is a namespaced JSON cache backed by a Redis client.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a [Cache] over client.
func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Key builds the Redis key for a namespaced entry.
func Key(namespace, key string) string {
	return namespace + ":" + key
}

/*
Put stores value as JSON under namespace:key for ttl.

Parameters:
  - context: context.Context
  - namespace: string (e.g. "user")
  - key: string
  - value: any (JSON-encodable)
  - ttl: time.Duration

Returns:
  - error: Redis transport failures only
*/
func (cache *Cache) Put(context context.Context, namespace, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		cache.logger.WarnContext(context, "cache_put_encode_failed",
			slog.String("namespace", namespace),
			slog.String("key", key),
			slog.Any("error", err),
		)
		// Drop whatever was there so readers fall back to the store.
		if err := cache.client.Del(context, Key(namespace, key)).Err(); err != nil {
			return fmt.Errorf("cache_put_evict_failed: %w", err)
		}
		return nil
	}

	if err := cache.client.Set(context, Key(namespace, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache_put_failed: %w", err)
	}

	return nil
}

// # Versioned Writes

// versionSuffix names the companion key that records the last accepted version.
const versionSuffix = ":version"

// putIfNewer sets KEYS[1] to ARGV[1] and KEYS[2] to ARGV[2], both with a PX of
// ARGV[3], unless KEYS[2] already holds a strictly greater version.
var putIfNewer = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if current and tonumber(current) > tonumber(ARGV[2]) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

/*
PutVersioned stores value like [Cache.Put], unless a write with a greater
version has already been accepted for namespace:key.

The version record survives [Cache.Delete] until its TTL runs out, so a late
writer is still rejected after an eviction. Equal versions overwrite.

Parameters:
  - context: context.Context
  - namespace: string
  - key: string
  - value: any (JSON-encodable)
  - version: int64 (monotonic per key, for example UnixMicro of updated_at)
  - ttl: time.Duration

Returns:
  - bool: false when the write was skipped as outdated
  - error: Redis transport failures only
*/
func (cache *Cache) PutVersioned(context context.Context, namespace, key string, value any, version int64, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		cache.logger.WarnContext(context, "cache_put_encode_failed",
			slog.String("namespace", namespace),
			slog.String("key", key),
			slog.Any("error", err),
		)
		if err := cache.client.Del(context, Key(namespace, key)).Err(); err != nil {
			return false, fmt.Errorf("cache_put_evict_failed: %w", err)
		}
		return false, nil
	}

	entryKey := Key(namespace, key)
	stored, err := putIfNewer.Run(context, cache.client,
		[]string{entryKey, entryKey + versionSuffix},
		payload, version, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache_put_versioned_failed: %w", err)
	}

	if stored == 0 {
		cache.logger.DebugContext(context, "cache_put_outdated_skipped",
			slog.String("namespace", namespace),
			slog.String("key", key),
			slog.Int64("version", version),
		)
		return false, nil
	}

	return true, nil
}

/*
Get decodes the entry under namespace:key into dest.

Parameters:
  - context: context.Context
  - namespace: string
  - key: string
  - dest: any (pointer)

Returns:
  - bool: true on hit
  - error: Redis transport failures only
*/
func (cache *Cache) Get(context context.Context, namespace, key string, dest any) (bool, error) {
	payload, err := cache.client.Get(context, Key(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
			return false, nil
		}
		return false, fmt.Errorf("cache_get_failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		cache.logger.WarnContext(context, "cache_get_decode_failed",
			slog.String("namespace", namespace),
			slog.String("key", key),
			slog.Any("error", err),
		)
		_ = cache.client.Del(context, Key(namespace, key)).Err()
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return false, nil
	}

	metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
	return true, nil
}

// Delete removes namespace:key. Deleting an absent key is not an error.
func (cache *Cache) Delete(context context.Context, namespace, key string) error {
	if err := cache.client.Del(context, Key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("cache_delete_failed: %w", err)
	}
	return nil
}

// Touch refreshes the TTL of namespace:key and reports whether it exists.
func (cache *Cache) Touch(context context.Context, namespace, key string, ttl time.Duration) (bool, error) {
	exists, err := cache.client.Expire(context, Key(namespace, key), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache_touch_failed: %w", err)
	}
	return exists, nil
}
