package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for keys that were never stored or expired
var ErrNotFound = errors.New("blob not found")

// Store content-addressed byte storage for original and processed images.
// Keys are opaque strings chosen by the caller.
type Store interface {
	// Put stores data under key, overwriting any previous value
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the stored bytes and content type, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Exists reports whether key holds a value
	Exists(ctx context.Context, key string) (bool, error)
}
