package profile

import "time"

const (
	RoleOwner   = "OWNER"
	RoleTrainer = "TRAINER"
	RoleStudent = "STUDENT"
)

type Profile struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	FCMToken  string    `db:"fcm_token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CanTrain reports whether the profile may own availability slots.
func (p *Profile) CanTrain() bool {
	return p.Role == RoleTrainer || p.Role == RoleOwner
}
