package repositories

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the durable client storage (the server-side analogue of
// a browser's localStorage).
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// namespacedStore prefixes every key, giving each browser session its own storage.
type namespacedStore struct {
	inner  KeyValueStore
	prefix string
}

// Namespaced scopes store to keys under prefix.
func Namespaced(store KeyValueStore, prefix string) KeyValueStore {
	return &namespacedStore{inner: store, prefix: prefix}
}

func (n *namespacedStore) Get(ctx context.Context, key string) (string, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespacedStore) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespacedStore) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = n.prefix + k
	}
	return n.inner.Delete(ctx, full...)
}

// SessionNamespace is the key prefix for one browser session.
func SessionNamespace(sessionID string) string {
	return "session:" + sessionID + ":"
}
