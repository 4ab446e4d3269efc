// Package store abstracts blob storage for case attachments.
package store

import (
	"context"
	"io"
)

// ObjectStore is the blob backend. Keys are opaque to callers.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
