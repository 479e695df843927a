/**
 * @description
 * Idempotency key gate backed by Redis. A key transitions from absent to
 * present exactly once; SETNX is what makes concurrent markers race to a
 * single winner.
 *
 * @notes
 * - CheckAvailable reports false on any cache error. That routes the caller to
 *   the replay-lookup path instead of creating a record, so a cache outage
 *   degrades latency, not correctness: the transfers table's unique id remains
 *   the authoritative duplicate-detection signal.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// IdempotencyKeyStore gates transfer initiation on a client-supplied key.
type IdempotencyKeyStore interface {
	// CheckAvailable reports whether the key has never been used. Errors count
	// as "not available".
	CheckAvailable(ctx context.Context, key string) bool
	// MarkUsed records key -> transferID if and only if the key is absent.
	// It never overwrites an existing mapping.
	MarkUsed(ctx context.Context, key, transferID string) bool
}

// RedisKeyStore implements IdempotencyKeyStore on a shared Redis instance.
type RedisKeyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisKeyStore creates a key store with the given key namespace prefix.
func NewRedisKeyStore(client redis.UniversalClient, prefix string) *RedisKeyStore {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "ramp:idempotency"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisKeyStore{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (s *RedisKeyStore) cacheKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// CheckAvailable returns true only when the key has no recorded value.
func (s *RedisKeyStore) CheckAvailable(ctx context.Context, key string) bool {
	_, err := s.client.Get(ctx, s.cacheKey(key)).Result()
	if err == nil {
		// Key present: already used.
		return false
	}
	if err == redis.Nil {
		return true
	}
	log.Printf("level=warn component=idempotency msg=\"cache read failed; treating key as used\" key=%s err=%v", key, err)
	return false
}

// MarkUsed maps the key to the persisted transfer id, set-if-not-exists. The
// mapping is kept without expiry: a key is burned forever once a transfer
// exists for it.
func (s *RedisKeyStore) MarkUsed(ctx context.Context, key, transferID string) bool {
	ok, err := s.client.SetNX(ctx, s.cacheKey(key), transferID, 0).Result()
	if err != nil {
		log.Printf("level=warn component=idempotency msg=\"cache write failed\" key=%s transfer_id=%s err=%v", key, transferID, err)
		return false
	}
	return ok
}
