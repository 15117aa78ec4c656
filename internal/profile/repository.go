package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"treinopp/internal/db"
)

var ErrProfileNotFound = errors.New("profile not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, tenantID, id string) (*Profile, error) {
	query := `
		SELECT id, tenant_id, name, email, role, fcm_token, created_at
		FROM profiles
		WHERE tenant_id = $1 AND id = $2
	`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile %s: %w", id, err)
	}

	return &p, nil
}

// FindNames maps profile ids to display names. Unknown ids are absent from the result.
func (r *repository) FindNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `
		SELECT id, name
		FROM profiles
		WHERE tenant_id = $1 AND id = ANY($2)
	`

	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find profile names: %w", err)
	}

	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
