package downloadrecords

import (
	"context"

	"github.com/kachery/gateway/internal/server/models"
)

// Filter narrows Select. Empty fields match everything.
type Filter struct {
	UserID   string
	ZoneName string
}

type Repository interface {
	// Insert appends one audit record. Records are never updated or deleted.
	Insert(ctx context.Context, rec *models.DownloadRecord) error
	// FindRecent returns one record for the zone/hash/alg with a timestamp
	// at or after minTimestamp (ms), or common.ErrNotFound. Used as the
	// tier-2 cache of recently issued URLs.
	FindRecent(ctx context.Context, zoneName, hash, hashAlg string, minTimestamp int64) (*models.DownloadRecord, error)
	Select(ctx context.Context, f Filter) ([]*models.DownloadRecord, error)
}
