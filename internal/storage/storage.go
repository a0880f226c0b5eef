package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the destinations exports are written to and exclusion
// files are read from.
type Storage interface {
	// Write stores everything read from r under key. A failed write must not
	// leave a partial object behind.
	Write(ctx context.Context, key string, r io.Reader, contentType string) error

	// Read retrieves content for the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}
