package booking

import "time"

const (
	StatusBooked    = "booked"
	StatusAttended  = "attended"
	StatusCancelled = "cancelled"
)

// IsActive reports whether status holds its slot.
func IsActive(status string) bool {
	return status == StatusBooked || status == StatusAttended
}

type Booking struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	SlotID    string    `db:"slot_id" json:"slot_id"`
	MemberID  string    `db:"member_id" json:"member_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BookingWithDetails struct {
	Booking
	TrainerID string    `db:"trainer_id" json:"trainer_id"`
	SlotStart time.Time `db:"slot_start" json:"slot_start"`
	SlotEnd   time.Time `db:"slot_end" json:"slot_end"`
	Location  string    `db:"location" json:"location"`
}
