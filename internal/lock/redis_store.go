package lock

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock key only when its value still matches
// the caller's holder identity.  Running GET and DEL inside one Lua
// script makes the compare-and-delete atomic, so a lock that expired
// and was re-acquired by a different user is never released by the
// previous holder.
const releaseScript = `if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
else
    return 0
end`

// RedisStore implements Store on a Redis client.  SET NX supplies the
// atomic insert-if-absent-with-expiry primitive; EXISTS supplies the
// plain lock check used by worker re-verification.
type RedisStore struct {
    rdb *redis.Client
}

// NewRedisStore returns a Store backed by the provided client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
    return &RedisStore{rdb: rdb}
}

// Acquire performs SET key holder NX EX ttl.
func (s *RedisStore) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
    return s.rdb.SetNX(ctx, key, holder, ttl).Result()
}

// Exists reports whether the lock key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
    n, err := s.rdb.Exists(ctx, key).Result()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// Release runs the owner-checked compare-and-delete script.
func (s *RedisStore) Release(ctx context.Context, key, holder string) (bool, error) {
    n, err := s.rdb.Eval(ctx, releaseScript, []string{key}, holder).Int64()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}
