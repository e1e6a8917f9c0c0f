package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL applies when a write passes a zero TTL and SetTTL was never called
const DefaultTTL = 30 * time.Minute

// RedisMemory implements the Memory interface using Redis
type RedisMemory struct {
	client     *redis.Client
	namespace  string
	defaultTTL time.Duration
	mu         sync.RWMutex
}

// NewRedisMemory connects to redisURL and verifies the connection
func NewRedisMemory(ctx context.Context, redisURL, namespace string) (*RedisMemory, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisMemoryFromClient(client, namespace), nil
}

// NewRedisMemoryFromClient wraps an existing client
func NewRedisMemoryFromClient(client *redis.Client, namespace string) *RedisMemory {
	if namespace == "" {
		namespace = "storefront"
	}
	return &RedisMemory{
		client:     client,
		namespace:  namespace,
		defaultTTL: DefaultTTL,
	}
}

// Set stores a value with TTL
func (r *RedisMemory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.ttl()
	}

	if err := r.client.Set(ctx, r.buildKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key
func (r *RedisMemory) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a key
func (r *RedisMemory) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists
func (r *RedisMemory) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, r.buildKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}
	return result > 0, nil
}

// SetTTL sets the default TTL for future writes
func (r *RedisMemory) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultTTL = ttl
}

func (r *RedisMemory) ttl() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultTTL
}

// Ping reports whether Redis is reachable
func (r *RedisMemory) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// buildKey creates a namespaced key
func (r *RedisMemory) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", r.namespace, key)
}

// Close closes the Redis connection
func (r *RedisMemory) Close() error {
	return r.client.Close()
}

// InMemoryStore is a process-local Memory
type InMemoryStore struct {
	data       map[string]valueWithExpiry
	defaultTTL time.Duration
	now        func() time.Time
	mu         sync.RWMutex
}

type valueWithExpiry struct {
	value  []byte
	expiry time.Time
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data:       make(map[string]valueWithExpiry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for expiry
func (m *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// Set stores a copy of value with TTL
func (m *InMemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	m.data[key] = valueWithExpiry{
		value:  append([]byte(nil), value...),
		expiry: m.now().Add(ttl),
	}
	return nil
}

// Get retrieves a copy of the value stored under key
func (m *InMemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, exists := m.data[key]
	now := m.now()
	m.mu.RUnlock()

	if !exists || now.After(entry.expiry) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return append([]byte(nil), entry.value...), nil
}

// Delete removes a key
func (m *InMemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Exists checks if a live key exists
func (m *InMemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.data[key]
	if !exists {
		return false, nil
	}
	return !m.now().After(entry.expiry), nil
}

// SetTTL sets the default TTL
func (m *InMemoryStore) SetTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultTTL = ttl
}

// Purge removes expired entries and returns how many were dropped
func (m *InMemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.data {
		if now.After(entry.expiry) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
