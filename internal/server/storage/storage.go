// Package storage abstracts the object store behind signed-URL operations.
// The service never proxies bytes: clients upload and fetch directly against
// the store using short-lived credentials minted here.
package storage

import (
	"context"
	"time"
)

// HeadInfo is the result of an existence probe.
type HeadInfo struct {
	Exists bool
	// Size is the object's actual size in bytes; zero when Exists is false.
	Size int64
}

// Disposition controls how a read credential asks the store to serve the
// object: inline for playback, attachment (with the original filename) for
// downloads.
type Disposition struct {
	Inline   bool
	Filename string
}

// ObjectStore is the set of signed-URL operations the service consumes.
// Objects are write-once per key; a changed file gets a new key.
type ObjectStore interface {
	// MintUploadURL returns a presigned write URL scoped to exactly one key
	// and content type, expiring after ttl.
	MintUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// MintDownloadURL returns a presigned read URL for key, expiring after
	// ttl, with the response disposition applied by the store.
	MintDownloadURL(ctx context.Context, key string, ttl time.Duration, d Disposition) (string, error)

	// Head reports whether an object exists at key and its actual size.
	Head(ctx context.Context, key string) (HeadInfo, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}
