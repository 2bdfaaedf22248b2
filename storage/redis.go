package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kanban/domain"
)

// Redis stores each board as a plain string value without expiry.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Load(ctx context.Context, key string) (domain.Board, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Board{}, false, nil
	}
	if err != nil {
		return domain.Board{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	b, err := domain.DecodeBoard(data)
	if err != nil {
		return domain.Board{}, false, err
	}
	return b, true, nil
}

func (r *Redis) Save(ctx context.Context, key string, b domain.Board) error {
	data, err := domain.EncodeBoard(b)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
