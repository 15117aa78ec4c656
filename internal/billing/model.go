package billing

import "time"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// Fee is a student's monthly membership charge.
type Fee struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	Status      string     `db:"status" json:"status"`
	NotifiedAt  *time.Time `db:"notified_at" json:"notified_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// DueFee is a pending fee joined with the contact details of its student.
type DueFee struct {
	Fee
	StudentName  string `db:"student_name"`
	StudentEmail string `db:"student_email"`
	FCMToken     string `db:"fcm_token"`
}

type SweepResult struct {
	Reminders int `json:"reminders"`
	Failed    int `json:"failed"`
	Overdue   int `json:"overdue"`
}
