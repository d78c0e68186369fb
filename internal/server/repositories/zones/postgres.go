package zones

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const zoneColumns = `name, owner_id, members, public_download, public_upload, bucket_uri, directory, credentials`

func scanZone(row interface{ Scan(...any) error }) (*models.Zone, error) {
	z := &models.Zone{}
	var membersJSON []byte
	var publicUpload sql.NullBool
	var bucketURI, directory, credentials sql.NullString

	err := row.Scan(&z.Name, &z.OwnerID, &membersJSON, &z.PublicDownload,
		&publicUpload, &bucketURI, &directory, &credentials)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(membersJSON, &z.Members); err != nil {
		return nil, fmt.Errorf("%w: zone %q has malformed members: %v", common.ErrInternalConsistency, z.Name, err)
	}
	z.PublicUpload = publicUpload.Valid && publicUpload.Bool
	z.BucketURI = bucketURI.String
	z.Directory = directory.String
	z.Credentials = credentials.String
	return z, nil
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE name = $1`

	z, err := scanZone(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if errors.Is(err, common.ErrInternalConsistency) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return z, nil
}

func (r *PostgresRepository) selectZones(ctx context.Context, query string, args ...any) ([]*models.Zone, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			if errors.Is(err, common.ErrInternalConsistency) {
				return nil, err
			}
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetForOwner(ctx context.Context, ownerID string) ([]*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE owner_id = $1 ORDER BY name`
	return r.selectZones(ctx, query, ownerID)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones ORDER BY name`
	return r.selectZones(ctx, query)
}

func (r *PostgresRepository) Upsert(ctx context.Context, zone *models.Zone) error {
	membersJSON := []byte("[]")
	if zone.Members != nil {
		var err error
		membersJSON, err = json.Marshal(zone.Members)
		if err != nil {
			return fmt.Errorf("marshal members: %w", err)
		}
	}

	query :=
		`INSERT INTO zones (name, owner_id, members, public_download, public_upload, bucket_uri, directory, credentials)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		zone.Name, zone.OwnerID, string(membersJSON), zone.PublicDownload,
		nullIfFalse(zone.PublicUpload), nullIfEmpty(zone.BucketURI),
		nullIfEmpty(zone.Directory), nullIfEmpty(zone.Credentials))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, name string, update models.ZoneUpdate) error {
	var set []string
	var args []any

	assign := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	unset := func(col string) {
		set = append(set, col+" = NULL")
	}

	if v, ok := update.Members.Value(); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal members: %w", err)
		}
		assign("members", string(b))
	} else if update.Members.Cleared() {
		assign("members", "[]")
	}
	if v, ok := update.PublicDownload.Value(); ok {
		assign("public_download", v)
	} else if update.PublicDownload.Cleared() {
		assign("public_download", false)
	}
	if v, ok := update.PublicUpload.Value(); ok {
		assign("public_upload", v)
	} else if update.PublicUpload.Cleared() {
		unset("public_upload")
	}
	if v, ok := update.BucketURI.Value(); ok {
		assign("bucket_uri", v)
	} else if update.BucketURI.Cleared() {
		unset("bucket_uri")
	}
	if v, ok := update.Directory.Value(); ok {
		assign("directory", v)
	} else if update.Directory.Cleared() {
		unset("directory")
	}
	if v, ok := update.Credentials.Value(); ok {
		assign("credentials", v)
	} else if update.Credentials.Cleared() {
		unset("credentials")
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, name)
	query := fmt.Sprintf("UPDATE zones SET %s WHERE name = $%d", strings.Join(set, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfFalse(b bool) any {
	if !b {
		return nil
	}
	return b
}
