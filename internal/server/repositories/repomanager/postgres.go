// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/migrations"
	"github.com/kachery/gateway/internal/server/repositories/downloadrecords"
	"github.com/kachery/gateway/internal/server/repositories/uploadrecords"
	"github.com/kachery/gateway/internal/server/repositories/users"
	"github.com/kachery/gateway/internal/server/repositories/zones"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Zones returns a zones.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Zones(db dbx.DBTX) zones.Repository {
	return zones.NewPostgresRepository(db)
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// UploadRecords returns an uploadrecords.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) UploadRecords(db dbx.DBTX) uploadrecords.Repository {
	return uploadrecords.NewPostgresRepository(db)
}

// DownloadRecords returns a downloadrecords.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) DownloadRecords(db dbx.DBTX) downloadrecords.Repository {
	return downloadrecords.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
