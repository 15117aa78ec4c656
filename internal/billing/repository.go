package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	// ClaimDue stamps notified_at on pending, unclaimed fees due in [from, until]
	// across all tenants and returns them. A fee is claimed by at most one caller.
	ClaimDue(ctx context.Context, from, until, at time.Time) ([]DueFee, error)
	// ReleaseClaims clears notified_at so the next sweep picks the fees up again.
	ReleaseClaims(ctx context.Context, ids []string) error
	// MarkOverdue flips pending fees due before today and returns how many changed.
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ClaimDue(ctx context.Context, from, until, at time.Time) ([]DueFee, error) {
	query := `
		WITH claimed AS (
			UPDATE fees
			SET notified_at = $3
			WHERE status = 'pending'
			AND notified_at IS NULL
			AND due_date BETWEEN $1::date AND $2::date
			RETURNING id, tenant_id, student_id, amount_cents, due_date, status, notified_at, created_at
		)
		SELECT
			c.id,
			c.tenant_id,
			c.student_id,
			c.amount_cents,
			c.due_date,
			c.status,
			c.notified_at,
			c.created_at,
			COALESCE(p.name, '') AS student_name,
			COALESCE(p.email, '') AS student_email,
			COALESCE(p.fcm_token, '') AS fcm_token
		FROM claimed c
		LEFT JOIN profiles p ON p.id = c.student_id AND p.tenant_id = c.tenant_id
		ORDER BY c.due_date ASC
	`

	var fees []DueFee
	if err := r.db.SelectContext(ctx, &fees, query, from, until, at); err != nil {
		return nil, fmt.Errorf("claim due fees: %w", err)
	}

	return fees, nil
}

func (r *repository) ReleaseClaims(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE fees
		SET notified_at = NULL
		WHERE id = ANY($1) AND status = 'pending'
	`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("release fee claims: %w", err)
	}
	return nil
}

func (r *repository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE fees
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1::date
	`

	result, err := r.db.ExecContext(ctx, query, today)
	if err != nil {
		return 0, fmt.Errorf("mark fees overdue: %w", err)
	}

	return result.RowsAffected()
}
