package kv

import "context"

// Store is the durable key-value collaborator used for operator
// profiles and gateway cache entries. Entries never expire here;
// eviction policy belongs to the backing store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}
