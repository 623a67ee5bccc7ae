package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"membership/pkg/platform/sentinel"
)

const (
	// KeyPrefix namespaces draft documents; one key per wizard session.
	KeyPrefix = "registration:draft:"

	DefaultTTL = 7 * 24 * time.Hour
)

// Store persists drafts in Redis with a sliding expiry refreshed on write.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides how long an untouched draft is kept.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	return s.client.Set(ctx, KeyPrefix+key, doc, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(sentinel.ErrUnavailable, err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, KeyPrefix+key).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
