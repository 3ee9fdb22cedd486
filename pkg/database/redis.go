package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each collection under a single string key
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to redisURL and verifies the connection
func NewRedisBackend(redisURL, prefix string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBackendWithClient(client, prefix), nil
}

// NewRedisBackendWithClient wraps an existing client
func NewRedisBackendWithClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "betportal:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(collection string) string {
	return b.prefix + collection
}

func (b *RedisBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDocument
	}
	return data, err
}

func (b *RedisBackend) Save(ctx context.Context, collection string, data []byte) error {
	return b.client.Set(ctx, b.key(collection), data, 0).Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
