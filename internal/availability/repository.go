package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"treinopp/internal/db"
)

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotHasBooking  = errors.New("slot has an active booking")
	ErrTrainerNotFound = errors.New("trainer not found")
)

const slotColumns = `id, tenant_id, trainer_id, start_time, end_time, location, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByTrainer(ctx context.Context, tenantID, trainerID string) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE tenant_id = $1 AND trainer_id = $2
		ORDER BY start_time ASC
	`

	var slots []Slot
	err := r.db.SelectContext(ctx, &slots, query, tenantID, trainerID)
	if db.IsInvalidText(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list slots for trainer %s: %w", trainerID, err)
	}

	return slots, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id string) (*Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE tenant_id = $1 AND id = $2
	`

	var slot Slot
	err := r.db.GetContext(ctx, &slot, query, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", id, err)
	}

	return &slot, nil
}

func (r *repository) CreateGuarded(ctx context.Context, slot Slot, guard func(ctx context.Context) error) (*Slot, error) {
	query := `
		INSERT INTO availability_slots (tenant_id, trainer_id, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + slotColumns

	var created Slot
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockTrainer(ctx, tx, slot.TenantID, slot.TrainerID); err != nil {
			return err
		}
		if err := guard(ctx); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &created, query,
			slot.TenantID, slot.TrainerID, slot.Start, slot.End, slot.Location); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, slot Slot, guard func(ctx context.Context) error) (*Slot, error) {
	query := `
		UPDATE availability_slots
		SET start_time = $4, end_time = $5, location = $6
		WHERE tenant_id = $1 AND trainer_id = $2 AND id = $3
		RETURNING ` + slotColumns

	var updated Slot
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockTrainer(ctx, tx, slot.TenantID, slot.TrainerID); err != nil {
			return err
		}
		if err := guard(ctx); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &updated, query,
			slot.TenantID, slot.TrainerID, slot.ID, slot.Start, slot.End, slot.Location)
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("update slot %s: %w", slot.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes a slot that has no active booking. It takes the trainer lock
// first, the same order bookings and slot edits use.
func (r *repository) Delete(ctx context.Context, tenantID, trainerID, id string) error {
	query := `
		DELETE FROM availability_slots s
		WHERE s.tenant_id = $1 AND s.trainer_id = $2 AND s.id = $3
		AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.slot_id = s.id AND b.status IN ('booked', 'attended')
		)
	`

	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockTrainer(ctx, tx, tenantID, trainerID); err != nil {
			if errors.Is(err, ErrTrainerNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		result, err := tx.ExecContext(ctx, query, tenantID, trainerID, id)
		if db.IsInvalidText(err) {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("delete slot %s: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected > 0 {
			return nil
		}

		exists, err := db.Exists(ctx, tx,
			`SELECT EXISTS(SELECT 1 FROM availability_slots WHERE tenant_id = $1 AND trainer_id = $2 AND id = $3)`,
			tenantID, trainerID, id)
		if err != nil {
			return fmt.Errorf("check slot %s: %w", id, err)
		}
		if exists {
			return ErrSlotHasBooking
		}
		return ErrSlotNotFound
	})
}

// lockTrainer serializes schedule writes for one trainer until the transaction ends.
func lockTrainer(ctx context.Context, tx *sqlx.Tx, tenantID, trainerID string) error {
	var id string
	err := tx.GetContext(ctx, &id,
		`SELECT id FROM profiles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, trainerID)
	if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
		return ErrTrainerNotFound
	}
	if err != nil {
		return fmt.Errorf("lock trainer %s: %w", trainerID, err)
	}
	return nil
}
