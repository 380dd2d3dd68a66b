// Package blobstore abstracts the storage that holds cached embeddings,
// persisted statistics and score reports.
//
// Names are slash-separated paths relative to the store root. Blobs are
// written whole and immutable afterwards; presence alone signals validity.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing immutable data blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a blob atomically, creating parent directories as needed.
	Put(ctx context.Context, name string, data []byte) error

	// Exists reports whether a blob exists.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of the regular files directly under dir,
	// sorted, excluding subdirectories. Names are full store-relative
	// paths.
	List(ctx context.Context, dir string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64

	// Bytes returns the blob contents. The slice is valid until Close;
	// for memory-mapped blobs this is a zero-copy view.
	Bytes() ([]byte, error)
}
