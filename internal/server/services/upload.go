// Package services implements the request-facing operations of the gateway:
// two-phase uploads, download resolution and usage aggregation. Services are
// stateless apart from best-effort caches; each call either completes or
// fails outright, and every side effect (an appended audit record) is safe
// to have happened even if a later step fails.
package services

import (
	"database/sql"
	"fmt"

	"context"

	"github.com/kachery/gateway/internal/cachex"
	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/locator"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
)

// Per-zone upload size quotas. The communal default zone is kept tighter
// than privately provisioned ones.
const (
	defaultZoneUploadQuota = 1000 * 1000 * 200
	zoneUploadQuota        = 1000 * 1000 * 1000
)

// DefaultZoneName is the communal zone with the reduced upload quota.
const DefaultZoneName = "default"

// InitiateResult is the outcome of an upload initiation.
type InitiateResult struct {
	// AlreadyExists is set when the content is already stored; no URL is
	// issued and no record is appended.
	AlreadyExists bool
	// AlreadyPending is always false: no pending-upload state is tracked, so
	// re-initiating after an interrupted upload is always allowed.
	AlreadyPending  bool
	SignedUploadURL string
	ObjectKey       string
}

// UploadService coordinates the two-phase upload protocol. No pending state
// is kept between the phases; content addressing makes re-initiation safe.
type UploadService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	locator *locator.Locator
	clock   cachex.Clock
}

func NewUploadService(db *sql.DB, repos repomanager.RepositoryManager, loc *locator.Locator, clock cachex.Clock) *UploadService {
	if clock == nil {
		clock = cachex.RealClock()
	}
	return &UploadService{db: db, repos: repos, locator: loc, clock: clock}
}

func uploadQuota(zoneName string) int64 {
	if zoneName == DefaultZoneName {
		return defaultZoneUploadQuota
	}
	return zoneUploadQuota
}

// Initiate validates the request, short-circuits when the content already
// exists, and otherwise issues a presigned upload URL and appends an
// "initiate" audit record.
func (s *UploadService) Initiate(ctx context.Context, zone *models.Zone, userID string, size int64, hash, hashAlg string) (*InitiateResult, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", common.ErrValidation, size)
	}
	if quota := uploadQuota(zone.Name); size > quota {
		return nil, fmt.Errorf("%w: size %d exceeds quota %d for zone %q", common.ErrValidation, size, quota, zone.Name)
	}
	if !locator.ValidHash(hashAlg, hash) {
		return nil, fmt.Errorf("%w: unsupported hash %s:%s", common.ErrValidation, hashAlg, hash)
	}

	exists, _, key, err := s.locator.Exists(ctx, zone, hashAlg, hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return &InitiateResult{AlreadyExists: true, ObjectKey: key}, nil
	}

	url, key, err := s.locator.IssueUploadURL(ctx, zone, hashAlg, hash)
	if err != nil {
		return nil, err
	}

	rec := &models.UploadRecord{
		Stage:     models.StageInitiate,
		Timestamp: s.clock.Now().UnixMilli(),
		ZoneName:  zone.Name,
		BucketURI: zone.BucketURI,
		UserID:    userID,
		Size:      size,
		Hash:      hash,
		HashAlg:   hashAlg,
		ObjectKey: key,
	}
	if err := s.repos.UploadRecords(s.db).Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &InitiateResult{SignedUploadURL: url, ObjectKey: key}, nil
}

// Finalize appends a "finalize" audit record. It does not re-verify that the
// object actually landed in the store; the audit trail is the completion
// signal.
func (s *UploadService) Finalize(ctx context.Context, zone *models.Zone, userID string, size int64, hash, hashAlg, objectKey string) error {
	if zone.BucketURI == "" {
		return fmt.Errorf("%w: bucket URI not set for zone %q", common.ErrConfiguration, zone.Name)
	}
	if !locator.ValidHash(hashAlg, hash) {
		return fmt.Errorf("%w: unsupported hash %s:%s", common.ErrValidation, hashAlg, hash)
	}
	if objectKey == "" {
		key, err := locator.StorageKey(zone, hashAlg, hash)
		if err != nil {
			return err
		}
		objectKey = key
	}

	rec := &models.UploadRecord{
		Stage:     models.StageFinalize,
		Timestamp: s.clock.Now().UnixMilli(),
		ZoneName:  zone.Name,
		BucketURI: zone.BucketURI,
		UserID:    userID,
		Size:      size,
		Hash:      hash,
		HashAlg:   hashAlg,
		ObjectKey: objectKey,
	}
	return s.repos.UploadRecords(s.db).Insert(ctx, rec)
}
