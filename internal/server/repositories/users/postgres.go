package users

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

const userColumns = `id, name, email, research_description, api_key`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var researchDescription, apiKey sql.NullString

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &researchDescription, &apiKey); err != nil {
		return nil, err
	}
	u.ResearchDescription = researchDescription.String
	u.APIKey = apiKey.String
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = $1`, apiKey)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, name, email, research_description, api_key)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email,
		nullIfEmpty(user.ResearchDescription), nullIfEmpty(user.APIKey))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, update models.UserUpdate) error {
	var set []string
	var args []any

	assign := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	unset := func(col string) {
		set = append(set, col+" = NULL")
	}

	if v, ok := update.Name.Value(); ok {
		assign("name", v)
	} else if update.Name.Cleared() {
		assign("name", "")
	}
	if v, ok := update.Email.Value(); ok {
		assign("email", v)
	} else if update.Email.Cleared() {
		assign("email", "")
	}
	if v, ok := update.ResearchDescription.Value(); ok {
		assign("research_description", v)
	} else if update.ResearchDescription.Cleared() {
		unset("research_description")
	}
	if v, ok := update.APIKey.Value(); ok {
		assign("api_key", v)
	} else if update.APIKey.Cleared() {
		unset("api_key")
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

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

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
