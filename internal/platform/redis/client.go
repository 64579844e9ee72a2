// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for volatile data storage.

It backs the two expiring data sets of the service: server-side session
state and the user projection cache.

Core Responsibilities:

  - Volatility: Handles data with TTL (Time-To-Live).
  - Observability: Counts failed commands through a client hook.
  - Safety: Manages connection pooling and timeouts.
*/
package redis

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/userhub/internal/platform/metrics"
)

// Opinionated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// NewClient parses a Redis URL and returns a ready-to-use client.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	// Pool configuration Tuning
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)
	Instrument(client)

	// Validate connectivity immediately at startup.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

// Instrument registers the metrics hook on client.
func Instrument(client *redis.Client) {
	client.AddHook(metricsHook{})
}

// # Metrics Hook

// metricsHook counts failed commands. redis.Nil is a miss and NOSCRIPT is the
// EVALSHA probe that script runs retry with EVAL; neither is a failure.
type metricsHook struct{}

func (hook metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (hook metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(context stdctx.Context, command redis.Cmder) error {
		err := next(context, command)
		if err != nil && !errors.Is(err, redis.Nil) && !redis.HasErrorPrefix(err, "NOSCRIPT") {
			metrics.RedisErrors.WithLabelValues(command.Name()).Inc()
		}
		return err
	}
}

func (hook metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(context stdctx.Context, commands []redis.Cmder) error {
		err := next(context, commands)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}
