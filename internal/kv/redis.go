package kv

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the cache in a shared Redis instance so several mirror
// daemons on one host see the same data.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	v, err := r.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(key string, value []byte) error {
	// No TTL: cache entries are invalidated explicitly, never by time.
	return r.client.Set(context.Background(), key, value, 0).Err()
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

func (r *Redis) Keys(prefix string) ([]string, error) {
	ctx := context.Background()
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
