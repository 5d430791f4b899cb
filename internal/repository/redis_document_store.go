package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore keeps the document in a single Redis string key.
type RedisDocumentStore struct {
	client *redis.Client
	key    string
}

// NewRedisDocumentStore returns a store bound to key.
func NewRedisDocumentStore(client *redis.Client, key string) *RedisDocumentStore {
	return &RedisDocumentStore{client: client, key: key}
}

func (s *RedisDocumentStore) Init(ctx context.Context) error {
	if err := s.client.SetNX(ctx, s.key, emptyDocument, 0).Err(); err != nil {
		return fmt.Errorf("init redis document %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisDocumentStore) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read redis document %s: %w", s.key, err)
	}
	return data, nil
}

func (s *RedisDocumentStore) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write redis document %s: %w", s.key, err)
	}
	return nil
}
