// Package storage provides the object storage targets split parts can be
// mirrored to: a local directory tree and S3-compatible buckets.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrUploadFailed wraps every failed Put.
var ErrUploadFailed = errors.New("upload failed")

// ObjectStorage abstracts the write side of an object store.
type ObjectStorage interface {
	// Put stores body under key, replacing any existing object. body is
	// rewound before every attempt so implementations may retry.
	Put(ctx context.Context, key string, body io.ReadSeeker) error

	// ListObjects returns all keys under prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
