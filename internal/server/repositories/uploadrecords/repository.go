package uploadrecords

import (
	"context"

	"github.com/kachery/gateway/internal/server/models"
)

// Filter narrows Select. Empty fields match everything.
type Filter struct {
	UserID   string
	ZoneName string
	Stage    string
}

type Repository interface {
	// Insert appends one audit record. Records are never updated or deleted.
	Insert(ctx context.Context, rec *models.UploadRecord) error
	Select(ctx context.Context, f Filter) ([]*models.UploadRecord, error)
}
