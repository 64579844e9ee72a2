// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userhub/internal/platform/metrics"
	redisstore "github.com/taibuivan/userhub/internal/platform/redis"
)

/*
TestNewClient_ConnectsAndPings verifies URL parsing and the startup ping.
*/
func TestNewClient_ConnectsAndPings(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/0", logger)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, redisstore.Ping(context.Background(), client))
}

/*
TestNewClient_InvalidURL rejects malformed URLs before dialing.
*/
func TestNewClient_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	_, err := redisstore.NewClient(context.Background(), "://nope", logger)
	assert.Error(t, err)
}

/*
TestInstrument_CountsFailuresNotMisses verifies that redis.Nil is not an error metric.
*/
func TestInstrument_CountsFailuresNotMisses(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	defer client.Close()
	redisstore.Instrument(client)

	getErrors := metrics.RedisErrors.WithLabelValues("get")
	before := testutil.ToFloat64(getErrors)

	// A miss returns redis.Nil and must not count.
	_, err := client.Get(context.Background(), "absent").Result()
	require.ErrorIs(t, err, goredis.Nil)
	assert.Equal(t, before, testutil.ToFloat64(getErrors))

	// A server-side error counts.
	server.SetError("LOADING")
	_, err = client.Get(context.Background(), "absent").Result()
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(getErrors))
}
