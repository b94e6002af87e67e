package ports

import "context"

// KeyValueStore is the persistence backend the client store is built on.
// Values are opaque strings; the store owns their encoding.
type KeyValueStore interface {
	// Get returns the value stored under key. found is false when the key is
	// absent, which is not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key owned by this store.
	Clear(ctx context.Context) error
}

// Pinger is implemented by backends that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
