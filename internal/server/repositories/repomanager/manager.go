package repomanager

import (
	"context"
	"database/sql"

	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/repositories/downloadrecords"
	"github.com/kachery/gateway/internal/server/repositories/uploadrecords"
	"github.com/kachery/gateway/internal/server/repositories/users"
	"github.com/kachery/gateway/internal/server/repositories/zones"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Zones(db dbx.DBTX) zones.Repository
	Users(db dbx.DBTX) users.Repository
	UploadRecords(db dbx.DBTX) uploadrecords.Repository
	DownloadRecords(db dbx.DBTX) downloadrecords.Repository
}
