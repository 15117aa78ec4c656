package booking

import "context"

type Repository interface {
	// Create reserves slotID for memberID. It fails with ErrSlotUnavailable when the
	// slot, or any overlapping slot of the same trainer, already holds an active booking.
	Create(ctx context.Context, tenantID, slotID, memberID string) (*Booking, error)
	GetByID(ctx context.Context, tenantID, id string) (*BookingWithDetails, error)
	ActiveBySlots(ctx context.Context, tenantID string, slotIDs []string) ([]Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id, from, to string) error
	ListByMember(ctx context.Context, tenantID, memberID string) ([]BookingWithDetails, error)
}
