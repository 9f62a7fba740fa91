package persistence

import "context"

// KeyValueRepository stores opaque values under string keys. Put replaces the
// whole value; there is no partial update.
type KeyValueRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
