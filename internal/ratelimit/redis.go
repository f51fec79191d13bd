package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is an AttemptStore shared across instances. Each key is a counter
// with the window as its TTL.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedis(addr, password string, db, max int, window time.Duration) (*Redis, error) {
	if max < 1 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Redis{client: client, max: max, window: window, prefix: "login_attempts:"}, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	full := r.prefix + key
	count, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, full, r.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(r.max), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
