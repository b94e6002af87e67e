package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which client an Idempotency-Key produced.
// Key format: <namespace>:idem:<key>
type IdempotencyStore struct {
	client    *redis.Client
	namespace string
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client, namespace string) *IdempotencyStore {
	return &IdempotencyStore{client: client, namespace: namespace}
}

// Lookup returns the client id recorded for key, if it has not expired.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, true, nil
}

// Remember records clientID for key (expires after idempotencyTTL).
func (s *IdempotencyStore) Remember(ctx context.Context, key, clientID string) error {
	return s.client.Set(ctx, s.key(key), clientID, idempotencyTTL).Err()
}

func (s *IdempotencyStore) key(k string) string {
	if s.namespace == "" {
		return "idem:" + k
	}
	return fmt.Sprintf("%s:idem:%s", s.namespace, k)
}
