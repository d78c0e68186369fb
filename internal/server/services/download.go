package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kachery/gateway/internal/cachex"
	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/locator"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
)

const (
	// downloadURLValidity is the lifetime of an issued download URL.
	downloadURLValidity = time.Hour
	// urlReuseWindow bounds how long an already-issued URL is handed out
	// again instead of signing a fresh one. Staleness is acceptable because
	// a URL is an idempotent grant with its own one-hour expiry.
	urlReuseWindow = 10 * time.Minute
)

// FindResult is the outcome of a download resolution. A missing object is a
// normal result (Found false), not an error.
type FindResult struct {
	Found     bool
	URL       string
	Size      int64
	BucketURI string
	ObjectKey string
	// CacheHit is set when the URL was reused from either cache tier rather
	// than freshly signed.
	CacheHit bool
}

type cachedURL struct {
	url       string
	size      int64
	objectKey string
}

// DownloadService resolves content hashes to signed download URLs through a
// three-tier lookup: in-process cache, recent download records, then the
// object store itself.
type DownloadService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	locator  *locator.Locator
	clock    cachex.Clock
	urlCache *cachex.Cache[string, cachedURL]
}

func NewDownloadService(db *sql.DB, repos repomanager.RepositoryManager, loc *locator.Locator, clock cachex.Clock) *DownloadService {
	if clock == nil {
		clock = cachex.RealClock()
	}
	return &DownloadService{
		db:       db,
		repos:    repos,
		locator:  loc,
		clock:    clock,
		urlCache: cachex.New[string, cachedURL](urlReuseWindow, clock),
	}
}

func urlCacheKey(zoneName, hashAlg, hash string) string {
	return zoneName + ":" + hashAlg + ":" + hash
}

// FindFile resolves the content hash in the zone. Repeated lookups of the
// same popular object reuse the previously issued URL instead of
// round-tripping to the signing endpoint.
func (s *DownloadService) FindFile(ctx context.Context, zone *models.Zone, userID, hash, hashAlg string) (*FindResult, error) {
	if zone.BucketURI == "" {
		return nil, fmt.Errorf("%w: bucket URI not set for zone %q", common.ErrConfiguration, zone.Name)
	}
	if !locator.ValidHash(hashAlg, hash) {
		return nil, fmt.Errorf("%w: unsupported hash %s:%s", common.ErrValidation, hashAlg, hash)
	}

	cacheKey := urlCacheKey(zone.Name, hashAlg, hash)
	if c, ok := s.urlCache.Get(cacheKey); ok {
		return &FindResult{
			Found:     true,
			URL:       c.url,
			Size:      c.size,
			BucketURI: zone.BucketURI,
			ObjectKey: c.objectKey,
			CacheHit:  true,
		}, nil
	}

	minTimestamp := s.clock.Now().Add(-urlReuseWindow).UnixMilli()
	rec, err := s.repos.DownloadRecords(s.db).FindRecent(ctx, zone.Name, hash, hashAlg, minTimestamp)
	if err == nil {
		return &FindResult{
			Found:     true,
			URL:       rec.DownloadURL,
			Size:      rec.Size,
			BucketURI: rec.BucketURI,
			ObjectKey: rec.ObjectKey,
			CacheHit:  true,
		}, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	exists, size, key, err := s.locator.Exists(ctx, zone, hashAlg, hash)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &FindResult{Found: false}, nil
	}

	url, key, err := s.locator.IssueDownloadURL(ctx, zone, hashAlg, hash, downloadURLValidity)
	if err != nil {
		return nil, err
	}

	rec = &models.DownloadRecord{
		Timestamp:   s.clock.Now().UnixMilli(),
		ZoneName:    zone.Name,
		BucketURI:   zone.BucketURI,
		UserID:      userID,
		Size:        size,
		Hash:        hash,
		HashAlg:     hashAlg,
		ObjectKey:   key,
		DownloadURL: url,
	}
	if err := s.repos.DownloadRecords(s.db).Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.urlCache.Set(cacheKey, cachedURL{url: url, size: size, objectKey: key})

	return &FindResult{
		Found:     true,
		URL:       url,
		Size:      size,
		BucketURI: zone.BucketURI,
		ObjectKey: key,
	}, nil
}
