package schedule

import (
	"fmt"
	"time"

	"treinopp/internal/availability"
)

// UnknownMember is reported when a conflicting booking's member cannot be resolved.
const UnknownMember = "unknown"

// CandidateWindow is a proposed time range for a trainer's schedule.
type CandidateWindow struct {
	Start         time.Time
	End           time.Time
	ExcludeSlotID string
}

type ConflictEntry struct {
	SlotID        string    `json:"slotId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Location      string    `json:"location"`
	MemberName    string    `json:"memberName"`
	BookingStatus string    `json:"bookingStatus"`
}

type ConflictResult struct {
	HasConflict bool            `json:"hasConflict"`
	Conflicts   []ConflictEntry `json:"conflicts,omitempty"`
}

// ConflictError aborts a slot write whose window collides with active bookings.
type ConflictError struct {
	Result ConflictResult
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflicts with %d active booking(s)", len(e.Result.Conflicts))
}

type ScheduleRequest struct {
	Start         string `json:"start" binding:"required" example:"2026-10-20T09:30:00Z"`
	End           string `json:"end" binding:"required" example:"2026-10-20T10:30:00Z"`
	ExcludeSlotID string `json:"excludeSlotId,omitempty" example:""`
}

type SlotsResponse struct {
	Slots []availability.Slot `json:"slots"`
}
