// Package redis keeps storage keys as fields of a single Redis hash.
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultHash = "rocketshoes:storage"

type Storage struct {
	client *goredis.Client
	hash   string
	log    *logrus.Entry
}

// NewClient accepts either a redis:// URL or a bare host:port.
func NewClient(addr string) *goredis.Client {
	opts, err := goredis.ParseURL(addr)
	if err != nil {
		opts = &goredis.Options{
			Addr:            addr,
			MinIdleConns:    1,
			MaxRetries:      3,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    3 * time.Second,
			PoolSize:        10,
			PoolTimeout:     4 * time.Second,
			ConnMaxIdleTime: 3 * time.Minute,
		}
	}
	return goredis.NewClient(opts)
}

func NewStorage(client *goredis.Client, hash string, log *logrus.Entry) *Storage {
	if hash == "" {
		hash = DefaultHash
	}
	return &Storage{client: client, hash: hash, log: log}
}

// Initialize pings Redis until it answers, backing off exponentially up to
// 30s between attempts.
func (s *Storage) Initialize(ctx context.Context, attempts int) error {
	backoff := 500 * time.Millisecond
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			s.log.WithField("attempt", i).Info("redis reachable")
			return nil
		}
		s.log.WithError(err).WithField("attempt", i).Warn("redis ping failed")

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
	return errors.Errorf("redis unreachable after %d attempts", attempts)
}

func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis HGET")
	}
	return v, true, nil
}

func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return errors.Wrap(err, "redis HSET")
	}
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.hash, key).Err(); err != nil {
		return errors.Wrap(err, "redis HDEL")
	}
	return nil
}
