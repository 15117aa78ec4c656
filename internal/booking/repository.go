package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"treinopp/internal/db"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrSlotUnavailable  = errors.New("slot already has an active booking")
	ErrStatusTransition = errors.New("booking is not in the expected status")
)

const bookingColumns = `id, tenant_id, slot_id, member_id, status, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tenantID, slotID, memberID string) (*Booking, error) {
	insert := `
		INSERT INTO bookings (tenant_id, slot_id, member_id, status)
		SELECT $1, $2, $3, 'booked'
		WHERE NOT EXISTS (
			SELECT 1
			FROM bookings b
			JOIN availability_slots s ON s.id = b.slot_id
			WHERE s.tenant_id = $1
			AND s.trainer_id = $4
			AND b.status IN ('booked', 'attended')
			AND s.start_time < $6
			AND s.end_time > $5
		)
		RETURNING ` + bookingColumns

	var created Booking
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var trainerID string
		err := tx.GetContext(ctx, &trainerID,
			`SELECT trainer_id FROM availability_slots WHERE tenant_id = $1 AND id = $2`,
			tenantID, slotID)
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("find slot %s: %w", slotID, err)
		}

		// Trainer first, then the slot: the order slot edits use.
		if _, err := tx.ExecContext(ctx,
			`SELECT 1 FROM profiles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
			tenantID, trainerID); err != nil {
			return fmt.Errorf("lock trainer %s: %w", trainerID, err)
		}

		var slot struct {
			TrainerID string    `db:"trainer_id"`
			Start     time.Time `db:"start_time"`
			End       time.Time `db:"end_time"`
		}
		err = tx.GetContext(ctx, &slot, `
			SELECT trainer_id, start_time, end_time
			FROM availability_slots
			WHERE tenant_id = $1 AND id = $2
			FOR UPDATE
		`, tenantID, slotID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("lock slot %s: %w", slotID, err)
		}
		if slot.TrainerID != trainerID {
			return ErrSlotUnavailable
		}

		err = tx.GetContext(ctx, &created, insert,
			tenantID, slotID, memberID, slot.TrainerID, slot.Start, slot.End)
		if errors.Is(err, sql.ErrNoRows) || db.IsUniqueViolation(err) {
			return ErrSlotUnavailable
		}
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id string) (*BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.tenant_id,
			b.slot_id,
			b.member_id,
			b.status,
			b.created_at,
			s.trainer_id,
			s.start_time AS slot_start,
			s.end_time AS slot_end,
			s.location
		FROM bookings b
		JOIN availability_slots s ON s.id = b.slot_id
		WHERE b.tenant_id = $1 AND b.id = $2
	`

	var b BookingWithDetails
	err := r.db.GetContext(ctx, &b, query, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) || db.IsInvalidText(err) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}

	return &b, nil
}

func (r *repository) ActiveBySlots(ctx context.Context, tenantID string, slotIDs []string) ([]Booking, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND slot_id = ANY($2) AND status IN ('booked', 'attended')
		ORDER BY created_at ASC
	`

	var bookings []Booking
	if err := r.db.SelectContext(ctx, &bookings, query, tenantID, pq.Array(slotIDs)); err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	return bookings, nil
}

// UpdateStatus moves a booking from one status to another, failing with
// ErrStatusTransition when the booking is not currently in from.
func (r *repository) UpdateStatus(ctx context.Context, tenantID, id, from, to string) error {
	query := `
		UPDATE bookings
		SET status = $4
		WHERE tenant_id = $1 AND id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, id, from, to)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrStatusTransition
	}

	return nil
}

func (r *repository) ListByMember(ctx context.Context, tenantID, memberID string) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.tenant_id,
			b.slot_id,
			b.member_id,
			b.status,
			b.created_at,
			s.trainer_id,
			s.start_time AS slot_start,
			s.end_time AS slot_end,
			s.location
		FROM bookings b
		JOIN availability_slots s ON s.id = b.slot_id
		WHERE b.tenant_id = $1 AND b.member_id = $2
		ORDER BY s.start_time DESC
	`

	var bookings []BookingWithDetails
	if err := r.db.SelectContext(ctx, &bookings, query, tenantID, memberID); err != nil {
		return nil, fmt.Errorf("list bookings for member %s: %w", memberID, err)
	}

	return bookings, nil
}
