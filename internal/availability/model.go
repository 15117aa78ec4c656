package availability

import "time"

// Slot is a time range a trainer has declared as bookable. Start is always before End.
type Slot struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	TrainerID string    `db:"trainer_id" json:"trainer_id"`
	Start     time.Time `db:"start_time" json:"start"`
	End       time.Time `db:"end_time" json:"end"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type SlotRequest struct {
	Start    string `json:"start" binding:"required" example:"2026-10-20T09:00:00Z"`
	End      string `json:"end" binding:"required" example:"2026-10-20T10:00:00Z"`
	Location string `json:"location" binding:"max=200" example:"Sala 2"`
}
