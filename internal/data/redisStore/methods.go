package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (s *Store) ListGetAll(ctx context.Context, key string) ([]string, error) {
	return s.client.LRange(ctx, key, 0, -1).Result()
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// RecentMembers returns sorted-set members, highest score first.
func (s *Store) RecentMembers(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.client.ZRevRange(ctx, key, start, stop).Result()
}

func (s *Store) RemoveMembers(ctx context.Context, key string, members ...interface{}) error {
	return s.client.ZRem(ctx, key, members...).Err()
}

// Tx runs fn inside MULTI/EXEC so a conversation's keys change together.
func (s *Store) Tx(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	_, err := s.client.TxPipelined(ctx, fn)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
