package repositories

import (
	"context"
	"sync"
)

// MemoryKeyValueStore is an in-memory implementation of KeyValueStore. It
// backs the default STORE_DRIVER and the tests.
type MemoryKeyValueStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemoryKeyValueStore creates an empty in-memory store.
func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{
		values: make(map[string]string),
	}
}

func (r *MemoryKeyValueStore) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (r *MemoryKeyValueStore) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

func (r *MemoryKeyValueStore) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

// Keys returns a snapshot of the stored keys.
func (r *MemoryKeyValueStore) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	return keys
}
