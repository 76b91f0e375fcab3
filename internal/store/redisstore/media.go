package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fodonfoto/MemoryLM/internal/media"
)

// MediaStore keeps artifacts in redis hashes that expire after ttl, so the
// API and worker processes share them.
type MediaStore struct {
	s   *Store
	ttl time.Duration
}

func (s *Store) Media(ttl time.Duration) *MediaStore {
	return &MediaStore{s: s, ttl: ttl}
}

func (m *MediaStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	handle := uuid.New().String()
	key := mediaKey(handle)

	_, err := m.s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "data", data, "mime", mimeType)
		if m.ttl > 0 {
			p.Expire(ctx, key, m.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis put media: %w", err)
	}
	return handle, nil
}

func (m *MediaStore) Get(ctx context.Context, handle string) (*media.Object, error) {
	vals, err := m.s.rdb.HMGet(ctx, mediaKey(handle), "data", "mime").Result()
	if errors.Is(err, redis.Nil) {
		return nil, media.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get media: %w", err)
	}
	if vals[0] == nil {
		return nil, media.ErrNotFound
	}
	data, _ := vals[0].(string)
	mimeType, _ := vals[1].(string)
	return &media.Object{Data: []byte(data), MIMEType: mimeType}, nil
}

func (m *MediaStore) Delete(ctx context.Context, handle string) error {
	return m.s.rdb.Del(ctx, mediaKey(handle)).Err()
}
