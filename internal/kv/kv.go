// Package kv provides the named-key persistence the stores use to survive
// restarts. Consumers only see the Store interface; backends are a local
// bbolt file and redis.
package kv

import (
	"context"
	"errors"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")
