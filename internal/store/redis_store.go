package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"msgcore/internal/domain"
)

const defaultRedisPrefix = "msgcore"

// RedisKeyStore keeps each key kind in a Redis hash named "<prefix>:<kind>".
type RedisKeyStore struct {
	client *redis.Client
	prefix string
}

// RedisKeyStoreOption configures a RedisKeyStore.
type RedisKeyStoreOption func(*RedisKeyStore)

// WithRedisPrefix namespaces the hashes, e.g. per account.
func WithRedisPrefix(prefix string) RedisKeyStoreOption {
	return func(s *RedisKeyStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisKeyStore wraps an existing client. The client lifecycle is managed
// by the caller.
func NewRedisKeyStore(client *redis.Client, opts ...RedisKeyStoreOption) *RedisKeyStore {
	s := &RedisKeyStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisKeyStore) key(kind domain.KeyKind) string {
	return s.prefix + ":" + string(kind)
}

// Get reads ids from the kind's hash with a single HMGET.
func (s *RedisKeyStore) Get(ctx context.Context, kind domain.KeyKind, ids []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.key(kind), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget %s: %w", kind, err)
	}
	for i, v := range vals {
		switch t := v.(type) {
		case nil:
		case string:
			out[ids[i]] = []byte(t)
		case []byte:
			out[ids[i]] = t
		default:
			return nil, fmt.Errorf("redis hmget %s: unexpected value type %T", kind, v)
		}
	}
	return out, nil
}

// Set applies every write in one pipeline. A nil value deletes the field.
func (s *RedisKeyStore) Set(ctx context.Context, data domain.KeyData) error {
	pipe := s.client.Pipeline()
	queued := 0
	for kind, entries := range data {
		key := s.key(kind)
		for id, v := range entries {
			if v == nil {
				pipe.HDel(ctx, key, id)
			} else {
				pipe.HSet(ctx, key, id, v)
			}
			queued++
		}
	}
	if queued == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

var _ domain.KeyStore = (*RedisKeyStore)(nil)
