package tracking

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/redisx"
)

var errNilCache = errors.New("tracking: nil redis client")

type RedisCache struct {
	RDB     *redis.Client
	Service string
}

func NewRedisCache(rdb *redis.Client, service string) (*RedisCache, error) {
	if rdb == nil {
		return nil, errNilCache
	}
	return &RedisCache{RDB: rdb, Service: service}, nil
}

func (c *RedisCache) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, c.RDB, redisx.DedupKey(c.Service, eventID))
}

func (c *RedisCache) MarkSeen(ctx context.Context, eventID string) error {
	return c.RDB.Set(ctx, redisx.DedupKey(c.Service, eventID), "1", redisx.TTLDedup).Err()
}

func (c *RedisCache) Status(ctx context.Context, orderID string) (orders.StatusView, bool, error) {
	s, err := c.RDB.Get(ctx, redisx.StatusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return orders.StatusView{}, false, nil
	}
	if err != nil {
		return orders.StatusView{}, false, err
	}
	var v orders.StatusView
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		// corrupt entry gets overwritten
		return orders.StatusView{}, false, nil
	}
	return v, true, nil
}

func (c *RedisCache) PutStatus(ctx context.Context, v orders.StatusView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, redisx.StatusKey(v.OrderID), b, redisx.TTLStatusCache).Err()
}
