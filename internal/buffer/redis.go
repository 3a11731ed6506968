package buffer

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the buffer in a single Redis list. RPUSH appends to the tail,
// LPOP with a count removes from the head; the count form executes as one
// command, which is what makes concurrent flush workers safe without any
// extra locking.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(ctx context.Context, addr, password, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, key: key}, nil
}

func (r *Redis) Push(ctx context.Context, payload []byte) error {
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) PopBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := r.client.LPopCount(ctx, r.key, n).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lpop %s: %w", r.key, err)
	}
	return items, nil
}

func (r *Redis) Len(ctx context.Context) (int64, error) {
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", r.key, err)
	}
	return n, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
