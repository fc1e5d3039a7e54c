//go:build !js || !wasm

package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares credentials between processes and hosts. Every write is
// followed by a publish on <prefix>events so that watchers learn about it.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "eventpix:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) channel() string {
	return s.prefix + "events"
}

func (s *RedisStore) Get(ctx context.Context) (*Credentials, error) {
	vals, err := s.client.MGet(ctx, s.key(KeyAccess), s.key(KeyRefresh)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from redis: %w", err)
	}

	var c Credentials
	if v, ok := vals[0].(string); ok {
		c.Access = v
	}
	if v, ok := vals[1].(string); ok {
		c.Refresh = v
	}
	return normalize(c), nil
}

func (s *RedisStore) Set(ctx context.Context, creds Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccess), creds.Access, 0)
		pipe.Set(ctx, s.key(KeyRefresh), creds.Refresh, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store credentials in redis: %w", err)
	}
	return s.publish(ctx)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(KeyAccess), s.key(KeyRefresh))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear credentials in redis: %w", err)
	}
	return s.publish(ctx)
}

func (s *RedisStore) publish(ctx context.Context) error {
	if err := s.client.Publish(ctx, s.channel(), KeyAccess).Err(); err != nil {
		return fmt.Errorf("failed to publish credentials change: %w", err)
	}
	return nil
}

// Watch subscribes to the store's change channel and re-reads the access
// token for every notification.
func (s *RedisStore) Watch(ctx context.Context, fn func(Event)) error {
	sub := s.client.Subscribe(ctx, s.channel())
	defer sub.Close()

	// wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev := Event{Key: msg.Payload}
			if creds, err := s.Get(ctx); err == nil && creds != nil {
				ev.Value = creds.Access
			}
			fn(ev)
		}
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var (
	_ Store   = (*RedisStore)(nil)
	_ Watcher = (*RedisStore)(nil)
)
