// Package store defines the persistence abstraction used by swrcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). Entry freshness
// lives inside the blob itself, so stores carry no TTLs; a stale blob is
// still a valid blob until the engine replaces it.
//
// Important: storage keys are owned by swrcache. External code MUST NOT write
// values under an engine's namespace prefix. Foreign writes may be treated as
// corruption by strict envelope validation and deleted.
package store

import (
	"context"
)

// Stats describes a store's current contents. Implementations that cannot
// enumerate entries exactly (see the ristretto adapter) may approximate.
type Stats struct {
	Entries int
	Bytes   int64
}

// Store is a minimal durable byte store.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (blob, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores blob under key, atomically replacing any previous blob.
	Set(ctx context.Context, key string, blob []byte) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Clear removes every blob owned by this store.
	Clear(ctx context.Context) error

	// Stats reports how many blobs are stored and their total byte size.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
