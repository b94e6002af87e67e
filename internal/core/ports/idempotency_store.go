package ports

import "context"

// IdempotencyStore remembers which client a create request key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (clientID string, found bool, err error)
	Remember(ctx context.Context, key, clientID string) error
}
