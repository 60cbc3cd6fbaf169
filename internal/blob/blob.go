// Package blob stores receipt files and hands out the URL they are served from.
package blob

import (
	"context"
	"errors"
	"io"
	"regexp"
)

// ErrNotFound is returned when no object exists for a key.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that could escape the storage namespace.
var ErrInvalidKey = errors.New("invalid object key")

// Store persists receipt objects.
type Store interface {
	// Put writes data under key and returns the URL the object is served from.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Open returns a reader for the object and its content type.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)

	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidKey reports whether key is a flat object name safe to use as a file name.
func ValidKey(key string) bool {
	return len(key) <= 200 && keyPattern.MatchString(key) && key != "." && key != ".."
}
