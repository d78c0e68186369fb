// Package locator maps (zone, hash algorithm, hash) to a storage key and
// answers presence and signed-URL queries against the zone's backing bucket.
package locator

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/objectstore"
)

// HashAlgSHA1 is the only supported hash algorithm at this time.
const HashAlgSHA1 = "sha1"

var sha1HashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ValidHash reports whether hashAlg/hash are acceptable across the whole API
// surface: algorithm "sha1" and 40 lowercase hex characters.
func ValidHash(hashAlg, hash string) bool {
	return hashAlg == HashAlgSHA1 && sha1HashPattern.MatchString(hash)
}

// StorageKey derives the deterministic storage key for a content hash:
// the zone directory (if any) joined with
// "{alg}/{h0h1}/{h2h3}/{h4h5}/{hash}". Sharding by hash prefix avoids a
// single-directory hotspot in the backing store.
func StorageKey(zone *models.Zone, hashAlg, hash string) (string, error) {
	if !ValidHash(hashAlg, hash) {
		return "", fmt.Errorf("%w: unsupported hash %s:%s", common.ErrValidation, hashAlg, hash)
	}
	key := fmt.Sprintf("%s/%s/%s/%s/%s", hashAlg, hash[0:2], hash[2:4], hash[4:6], hash)
	return joinKeys(zone.Directory, key), nil
}

func joinKeys(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a[len(a)-1] == '/' {
		return a + b
	}
	return a + "/" + b
}

// Locator resolves storage keys against the object store using each zone's
// backing bucket.
type Locator struct {
	store objectstore.Store
}

func New(store objectstore.Store) *Locator {
	return &Locator{store: store}
}

// bucketRef validates that the zone is provisioned for transfers.
func bucketRef(zone *models.Zone) (objectstore.BucketRef, error) {
	if zone.BucketURI == "" {
		return objectstore.BucketRef{}, fmt.Errorf("%w: bucket URI not set for zone %q", common.ErrConfiguration, zone.Name)
	}
	if zone.Credentials == "" {
		return objectstore.BucketRef{}, fmt.Errorf("%w: credentials not set for zone %q", common.ErrConfiguration, zone.Name)
	}
	return objectstore.BucketRef{URI: zone.BucketURI, Credentials: zone.Credentials}, nil
}

// Exists reports whether the object for the hash is present and its size,
// along with the derived storage key.
func (l *Locator) Exists(ctx context.Context, zone *models.Zone, hashAlg, hash string) (bool, int64, string, error) {
	key, err := StorageKey(zone, hashAlg, hash)
	if err != nil {
		return false, 0, "", err
	}
	ref, err := bucketRef(zone)
	if err != nil {
		return false, 0, "", err
	}
	exists, size, err := l.store.ObjectExists(ctx, ref, key)
	if err != nil {
		return false, 0, "", err
	}
	return exists, size, key, nil
}

// IssueUploadURL returns a presigned upload URL and the storage key.
func (l *Locator) IssueUploadURL(ctx context.Context, zone *models.Zone, hashAlg, hash string) (string, string, error) {
	key, err := StorageKey(zone, hashAlg, hash)
	if err != nil {
		return "", "", err
	}
	ref, err := bucketRef(zone)
	if err != nil {
		return "", "", err
	}
	url, err := l.store.SignedUploadURL(ctx, ref, key)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// IssueDownloadURL returns a presigned download URL valid for ttl, and the
// storage key.
func (l *Locator) IssueDownloadURL(ctx context.Context, zone *models.Zone, hashAlg, hash string, ttl time.Duration) (string, string, error) {
	key, err := StorageKey(zone, hashAlg, hash)
	if err != nil {
		return "", "", err
	}
	ref, err := bucketRef(zone)
	if err != nil {
		return "", "", err
	}
	url, err := l.store.SignedDownloadURL(ctx, ref, key, ttl)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}
