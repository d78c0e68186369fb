package zones

import (
	"context"

	"github.com/kachery/gateway/internal/server/models"
)

type Repository interface {
	// Get returns the zone by name or common.ErrNotFound.
	Get(ctx context.Context, name string) (*models.Zone, error)
	// GetForOwner returns all zones owned by the given user id.
	GetForOwner(ctx context.Context, ownerID string) ([]*models.Zone, error)
	GetAll(ctx context.Context) ([]*models.Zone, error)
	// Upsert inserts the zone if absent and leaves an existing zone
	// untouched, making creation idempotent against races.
	Upsert(ctx context.Context, zone *models.Zone) error
	// Update applies a partial update; cleared fields are unset.
	Update(ctx context.Context, name string, update models.ZoneUpdate) error
	Delete(ctx context.Context, name string) error
}
