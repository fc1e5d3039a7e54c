//go:build js && wasm

package credentials

import (
	"context"
	"fmt"

	"github.com/syumai/workers/cloudflare/kv"
)

// KVNamespace is the binding name configured in wrangler.toml.
const KVNamespace = "eventpix_kv"

// KVStore keeps the pair in Cloudflare Workers KV, one entry per token.
type KVStore struct {
	kvStore *kv.Namespace
}

// NewKVStore creates a new Workers KV-backed credential store
func NewKVStore() (*KVStore, error) {
	// In Cloudflare Workers, KV namespaces are accessed via bindings
	kvStore, err := kv.NewNamespace(KVNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &KVStore{kvStore: kvStore}, nil
}

func (c *KVStore) Get(ctx context.Context) (*Credentials, error) {
	access, err := c.kvStore.GetString(KeyAccess, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token from KV: %w", err)
	}
	refresh, err := c.kvStore.GetString(KeyRefresh, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token from KV: %w", err)
	}
	return normalize(Credentials{Access: access, Refresh: refresh}), nil
}

func (c *KVStore) Set(ctx context.Context, creds Credentials) error {
	if err := c.kvStore.PutString(KeyAccess, creds.Access, nil); err != nil {
		return fmt.Errorf("failed to store access token in KV: %w", err)
	}
	if err := c.kvStore.PutString(KeyRefresh, creds.Refresh, nil); err != nil {
		return fmt.Errorf("failed to store refresh token in KV: %w", err)
	}
	return nil
}

func (c *KVStore) Clear(ctx context.Context) error {
	if err := c.kvStore.Delete(KeyAccess); err != nil {
		return fmt.Errorf("failed to delete access token from KV: %w", err)
	}
	if err := c.kvStore.Delete(KeyRefresh); err != nil {
		return fmt.Errorf("failed to delete refresh token from KV: %w", err)
	}
	return nil
}
