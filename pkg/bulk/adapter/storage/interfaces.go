// Package storage abstracts the object stores that export files land in,
// so the export pipeline writes the same way to a local directory or a
// GCS bucket.
package storage

import (
	"context"
	"io"
)

// Store is a minimal object-store client. Implementations must be safe for
// concurrent use.
type Store interface {
	// Upload writes the data stream to bucket/objectName with the given
	// MIME type.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens bucket/objectName for reading; the caller closes it.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// List calls fn for every object under bucket whose name starts with
	// prefix. Returning an error from fn stops the walk.
	List(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// Delete removes bucket/objectName. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, bucket, objectName string) error
	// Close releases the underlying client resources.
	Close() error
	// Type identifies the backend ("local", "gcs").
	Type() string
}
