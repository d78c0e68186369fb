package uploadrecords

import (
	"context"
	"fmt"
	"strings"

	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *models.UploadRecord) error {
	query :=
		`INSERT INTO upload_records (stage, ts, zone_name, bucket_uri, user_id, size, hash, hash_alg, object_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Stage, rec.Timestamp, rec.ZoneName, rec.BucketURI, rec.UserID,
		rec.Size, rec.Hash, rec.HashAlg, rec.ObjectKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Select(ctx context.Context, f Filter) ([]*models.UploadRecord, error) {
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
	cond("stage", f.Stage)

	query := `SELECT stage, ts, zone_name, bucket_uri, user_id, size, hash, hash_alg, object_key FROM upload_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UploadRecord
	for rows.Next() {
		rec := &models.UploadRecord{}
		err := rows.Scan(&rec.Stage, &rec.Timestamp, &rec.ZoneName, &rec.BucketURI,
			&rec.UserID, &rec.Size, &rec.Hash, &rec.HashAlg, &rec.ObjectKey)
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
