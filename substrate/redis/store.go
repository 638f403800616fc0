// Package redis backs the substrate with a Redis instance so several service
// replicas can share one persisted state (last write still wins per key).
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate"
)

// Config carries the connection settings for the Redis driver.
type Config struct {
	URL      string
	Password string
	DB       int
	Prefix   string
}

// Store implements the substrate contract on a Redis client. Keys are
// namespaced with a prefix so the database can be shared.
type Store struct {
	client *redislib.Client
	prefix string
}

// Open creates a Redis-backed substrate and performs a health check.
func Open(cfg Config) (*Store, error) {
	opts, err := redislib.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redislib.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "collection:"
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if err == redislib.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return result, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	if err != nil && strings.Contains(err.Error(), "OOM") {
		return domain.WrapError(domain.ErrCodeQuota, "redis out of memory", err)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return fmt.Sprintf("%s%s", s.prefix, k)
}

var _ substrate.Substrate = (*Store)(nil)
