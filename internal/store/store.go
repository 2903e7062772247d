// Package store provides the key-value document persistence used by the shop
// state. Each key maps to one UTF-8 JSON document; Load reads the whole
// document and Save overwrites it in full, mirroring the write-through
// semantics the service requires on every mutation.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound signals that no document exists under the requested key. A
// fresh deployment starts with no documents at all.
var ErrKeyNotFound = errors.New("store: key not found")

// KV is the persistence contract shared by all backends.
type KV interface {
	// Load returns the full document stored under key, or ErrKeyNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save overwrites the document under key with the given bytes.
	Save(ctx context.Context, key string, doc []byte) error
}

// Pinger is implemented by backends that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
