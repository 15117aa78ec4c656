package availability

import "context"

type Repository interface {
	ListByTrainer(ctx context.Context, tenantID, trainerID string) ([]Slot, error)
	GetByID(ctx context.Context, tenantID, id string) (*Slot, error)
	// CreateGuarded inserts slot while holding the trainer's schedule lock.
	// guard runs under the lock and aborts the insert when it returns an error.
	CreateGuarded(ctx context.Context, slot Slot, guard func(ctx context.Context) error) (*Slot, error)
	UpdateGuarded(ctx context.Context, slot Slot, guard func(ctx context.Context) error) (*Slot, error)
	Delete(ctx context.Context, tenantID, trainerID, id string) error
}
