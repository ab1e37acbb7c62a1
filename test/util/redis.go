package util

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	// Shared connection URL for all tests in local dev
	sharedRedisURL string
	redisOnce      sync.Once
	redisErr       error
	redisDB        atomic.Int64
)

// SetupTestRedis returns a client bound to its own logical database of the
// shared test server, flushed before use.
// - CI: connects to the external Redis service from CI_REDIS_URL
// - Local: uses a shared testcontainer (started once per package)
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	opt, err := redis.ParseURL(getOrCreateSharedRedis(t))
	require.NoError(t, err)

	// Per-test logical database, same isolation idea as the per-test
	// Postgres schemas.
	opt.DB = int(redisDB.Add(1) % 16)

	client := redis.NewClient(opt)
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// getOrCreateSharedRedis returns a connection URL to the shared server.
// In CI, uses CI_REDIS_URL. In local dev, creates a shared testcontainer once.
func getOrCreateSharedRedis(t *testing.T) string {
	if ciRedisURL := os.Getenv("CI_REDIS_URL"); ciRedisURL != "" {
		t.Log("Using external Redis from CI_REDIS_URL")
		return ciRedisURL
	}

	redisOnce.Do(func() {
		ctx := context.Background()
		t.Log("Starting shared Redis testcontainer for all tests")

		container, err := tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			redisErr = fmt.Errorf("failed to start redis container: %w", err)
			return
		}

		url, err := container.ConnectionString(ctx)
		if err != nil {
			redisErr = fmt.Errorf("failed to get connection string: %w", err)
			return
		}

		sharedRedisURL = url
		t.Logf("Shared Redis container ready: %s", sharedRedisURL)
	})

	require.NoError(t, redisErr, "Failed to setup shared Redis container")
	return sharedRedisURL
}
