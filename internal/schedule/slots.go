package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"treinopp/internal/apperr"
	"treinopp/internal/auth"
	"treinopp/internal/availability"
	"treinopp/internal/logger"
	"treinopp/internal/profile"
)

// SlotInput is a parsed slot create or reschedule request.
type SlotInput struct {
	Window   CandidateWindow
	Location string
}

// SlotService manages a trainer's availability. Every write re-runs the
// conflict check while the trainer's schedule is locked.
type SlotService struct {
	repo    availability.Repository
	checker *Checker
	now     func() time.Time
}

func NewSlotService(repo availability.Repository, checker *Checker) *SlotService {
	return &SlotService{repo: repo, checker: checker, now: time.Now}
}

func (s *SlotService) List(ctx context.Context, caller auth.Identity, trainerID string) ([]availability.Slot, error) {
	slots, err := s.repo.ListByTrainer(ctx, caller.TenantID, trainerID)
	if err != nil {
		logger.Error("Failed to list slots", "op", "list_slots", "trainer_id", trainerID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}
	if slots == nil {
		slots = []availability.Slot{}
	}
	return slots, nil
}

func (s *SlotService) Create(ctx context.Context, caller auth.Identity, trainerID string, in SlotInput) (*availability.Slot, error) {
	if err := s.checkWrite(caller, trainerID, in); err != nil {
		return nil, err
	}

	slot := availability.Slot{
		TenantID:  caller.TenantID,
		TrainerID: trainerID,
		Start:     in.Window.Start,
		End:       in.Window.End,
		Location:  strings.TrimSpace(in.Location),
	}

	created, err := s.repo.CreateGuarded(ctx, slot, s.guard(caller.TenantID, trainerID, in.Window))
	if err != nil {
		return nil, s.mapWriteError("create_slot", trainerID, err)
	}

	logger.Info("Slot created", "slot_id", created.ID, "trainer_id", trainerID, "by", caller.UserID)
	return created, nil
}

// Reschedule moves slotID to a new window, ignoring the slot's own bookings.
func (s *SlotService) Reschedule(ctx context.Context, caller auth.Identity, trainerID, slotID string, in SlotInput) (*availability.Slot, error) {
	in.Window.ExcludeSlotID = slotID
	if err := s.checkWrite(caller, trainerID, in); err != nil {
		return nil, err
	}

	slot := availability.Slot{
		ID:        slotID,
		TenantID:  caller.TenantID,
		TrainerID: trainerID,
		Start:     in.Window.Start,
		End:       in.Window.End,
		Location:  strings.TrimSpace(in.Location),
	}

	updated, err := s.repo.UpdateGuarded(ctx, slot, s.guard(caller.TenantID, trainerID, in.Window))
	if err != nil {
		return nil, s.mapWriteError("reschedule_slot", trainerID, err)
	}

	logger.Info("Slot rescheduled", "slot_id", slotID, "trainer_id", trainerID, "by", caller.UserID)
	return updated, nil
}

func (s *SlotService) Delete(ctx context.Context, caller auth.Identity, trainerID, slotID string) error {
	if !canManageSchedule(caller, trainerID) {
		return apperr.WithMessage(apperr.ErrForbidden, "you can only manage your own schedule")
	}

	err := s.repo.Delete(ctx, caller.TenantID, trainerID, slotID)
	switch {
	case errors.Is(err, availability.ErrSlotNotFound):
		return apperr.WithMessage(apperr.ErrNotFound, "slot not found")
	case errors.Is(err, availability.ErrSlotHasBooking):
		return apperr.WithMessage(apperr.ErrConflict, "slot has an active booking")
	case err != nil:
		logger.Error("Failed to delete slot", "op", "delete_slot", "trainer_id", trainerID, "slot_id", slotID, "error", err)
		return apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	logger.Info("Slot deleted", "slot_id", slotID, "trainer_id", trainerID, "by", caller.UserID)
	return nil
}

func (s *SlotService) checkWrite(caller auth.Identity, trainerID string, in SlotInput) error {
	if !canManageSchedule(caller, trainerID) {
		return apperr.WithMessage(apperr.ErrForbidden, "you can only manage your own schedule")
	}
	if err := in.Window.Validate(); err != nil {
		return err
	}
	if !in.Window.Start.After(s.now()) {
		return apperr.WithMessage(apperr.ErrInvalidInput, "slot must start in the future")
	}
	return nil
}

func (s *SlotService) guard(tenantID, trainerID string, w CandidateWindow) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		result, err := s.checker.CheckConflict(ctx, tenantID, trainerID, w)
		if err != nil {
			return err
		}
		if result.HasConflict {
			return &ConflictError{Result: *result}
		}
		return nil
	}
}

func (s *SlotService) mapWriteError(op, trainerID string, err error) error {
	var conflict *ConflictError
	var appErr *apperr.Error
	switch {
	case errors.As(err, &conflict), errors.As(err, &appErr):
		return err
	case errors.Is(err, availability.ErrSlotNotFound):
		return apperr.WithMessage(apperr.ErrNotFound, "slot not found")
	case errors.Is(err, availability.ErrTrainerNotFound):
		return apperr.WithMessage(apperr.ErrNotFound, "trainer profile not found")
	default:
		logger.Error("Failed to write slot", "op", op, "trainer_id", trainerID, "error", err)
		return apperr.Wrap(apperr.ErrUpstream, err, "")
	}
}

func canManageSchedule(caller auth.Identity, trainerID string) bool {
	return caller.UserID == trainerID || caller.Role == profile.RoleOwner
}
