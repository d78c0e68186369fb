package downloadrecords

import (
	"context"
	"database/sql"
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

const downloadColumns = `ts, zone_name, bucket_uri, user_id, size, hash, hash_alg, object_key, download_url`

func scanDownload(row interface{ Scan(...any) error }) (*models.DownloadRecord, error) {
	rec := &models.DownloadRecord{}
	err := row.Scan(&rec.Timestamp, &rec.ZoneName, &rec.BucketURI, &rec.UserID,
		&rec.Size, &rec.Hash, &rec.HashAlg, &rec.ObjectKey, &rec.DownloadURL)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *models.DownloadRecord) error {
	query :=
		`INSERT INTO download_records (ts, zone_name, bucket_uri, user_id, size, hash, hash_alg, object_key, download_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Timestamp, rec.ZoneName, rec.BucketURI, rec.UserID,
		rec.Size, rec.Hash, rec.HashAlg, rec.ObjectKey, rec.DownloadURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindRecent(ctx context.Context, zoneName, hash, hashAlg string, minTimestamp int64) (*models.DownloadRecord, error) {
	query :=
		`SELECT ` + downloadColumns + ` FROM download_records
		 WHERE zone_name = $1 AND hash = $2 AND hash_alg = $3 AND ts >= $4
		 ORDER BY ts DESC
		 LIMIT 1`

	rec, err := scanDownload(r.db.QueryRowContext(ctx, query, zoneName, hash, hashAlg, minTimestamp))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Select(ctx context.Context, f Filter) ([]*models.DownloadRecord, error) {
	var where []string
	var args []any
	cond := func(col, v string) {
		if v != "" {
			args = append(args, v)
			where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	cond("user_id", f.UserID)
	cond("zone_name", f.ZoneName)

	query := `SELECT ` + downloadColumns + ` FROM download_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.DownloadRecord
	for rows.Next() {
		rec, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
