//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"msgcore/internal/domain"
	"msgcore/internal/store"
)

// Set MSGCORE_TEST_REDIS_URL (e.g. redis://localhost:6379/15) to run.
func TestRedisKeyStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("MSGCORE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MSGCORE_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	suite.Run(t, &KeyStoreSuite{newStore: func(t *testing.T) domain.KeyStore {
		// A fresh prefix per test keeps runs isolated without FLUSHDB.
		prefix := "msgcore-test-" + uuid.NewString()
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := client.Keys(ctx, prefix+":*").Result()
			if len(keys) > 0 {
				_ = client.Del(ctx, keys...).Err()
			}
		})
		return store.NewRedisKeyStore(client, store.WithRedisPrefix(prefix))
	}})
}
