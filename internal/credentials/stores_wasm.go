//go:build js && wasm

package credentials

import (
	"context"
	"errors"
)

var errNotInWorkers = errors.New("store driver not available in js/wasm builds")

// RedisStore and SQLiteStore are unavailable under js/wasm; use KVStore.
type RedisStore struct{ Store }

type SQLiteStore struct{ Store }

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	return nil, errNotInWorkers
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	return nil, errNotInWorkers
}
