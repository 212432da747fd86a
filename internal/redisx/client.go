package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// New returns nil when addr is empty; every caller treats a nil client as
// "cache disabled".
func New(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Lock takes a best-effort SETNX lock. The returned release func is a no-op
// when the lock was not acquired.
func Lock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (bool, func(), error) {
	ok, err := rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil || !ok {
		return false, func() {}, err
	}
	return true, func() { _ = rdb.Del(context.Background(), key).Err() }, nil
}
