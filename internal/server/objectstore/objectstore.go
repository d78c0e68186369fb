// Package objectstore adapts S3-compatible object stores: existence checks
// and presigned upload/download URLs against a per-zone bucket.
package objectstore

import (
	"context"
	"time"
)

// BucketRef locates one backing bucket: the zone's bucket URI plus its
// credentials blob.
type BucketRef struct {
	// URI is the bucket locator, e.g. "s3://my-bucket".
	URI string
	// Credentials is a JSON object with accessKeyId, secretAccessKey and
	// optional endpoint/region for S3-compatible providers.
	Credentials string
}

// Store is the object-store boundary used by the locator.
type Store interface {
	// ObjectExists reports whether the object exists and its size in bytes.
	ObjectExists(ctx context.Context, ref BucketRef, key string) (bool, int64, error)
	// SignedUploadURL returns a presigned PUT URL for the object.
	SignedUploadURL(ctx context.Context, ref BucketRef, key string) (string, error)
	// SignedDownloadURL returns a presigned GET URL valid for ttl.
	SignedDownloadURL(ctx context.Context, ref BucketRef, key string, ttl time.Duration) (string, error)
}
