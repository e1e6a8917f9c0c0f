package memory

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get for missing or expired keys
var ErrKeyNotFound = errors.New("key not found")

// Memory is an expiring byte store
type Memory interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetTTL(ttl time.Duration)
}
