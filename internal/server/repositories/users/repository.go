package users

import (
	"context"

	"github.com/kachery/gateway/internal/server/models"
)

type Repository interface {
	// Get returns the user by id or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.User, error)
	// GetByAPIKey returns the user holding the given API credential or
	// common.ErrNotFound.
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	// Upsert inserts the user if absent and leaves an existing user
	// untouched, making creation idempotent against races.
	Upsert(ctx context.Context, user *models.User) error
	// Update applies a partial update; cleared fields are unset.
	Update(ctx context.Context, id string, update models.UserUpdate) error
}
