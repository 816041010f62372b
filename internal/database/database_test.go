package database

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastsight/forecastsight-go/internal/config"
)

// Test PostgresDB Close method with nil pool
func TestPostgresDB_Close_NilPool(t *testing.T) {
	db := &PostgresDB{Pool: nil}

	// Should not panic when closing nil pool
	assert.NotPanics(t, func() {
		db.Close()
	})
}

// Test RedisClient Close method with nil client
func TestRedisClient_Close_NilClient(t *testing.T) {
	client := &RedisClient{Client: nil}

	// Should not panic when closing nil client
	assert.NotPanics(t, func() {
		client.Close()
	})
}

func redisConfigFor(t *testing.T, addr string) config.RedisConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return config.RedisConfig{Host: host, Port: port}
}

func TestRedisConnectionLifecycle(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewRedisConnection(redisConfigFor(t, srv.Addr()))
	require.NoError(t, err)

	assert.NoError(t, client.HealthCheck(context.Background()))

	srv.SetError("LOADING Redis is loading the dataset in memory")
	assert.Error(t, client.HealthCheck(context.Background()))
	srv.SetError("")

	assert.NotPanics(t, client.Close)
}

func TestNewRedisConnectionRefused(t *testing.T) {
	// Port 1 is never a Redis server; the startup ping must fail fast.
	_, err := NewRedisConnection(config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
