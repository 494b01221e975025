package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves, reads and removes raw document bytes.
// Save never overwrites: every call yields a fresh storage key.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
	Provider() string
}
