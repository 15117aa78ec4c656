package schedule

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"treinopp/internal/apperr"
	"treinopp/internal/availability"
	"treinopp/internal/booking"
	"treinopp/internal/logger"
	"treinopp/internal/metrics"
	"treinopp/internal/profile"
)

type ProfileReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*profile.Profile, error)
	FindNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

type SlotReader interface {
	ListByTrainer(ctx context.Context, tenantID, trainerID string) ([]availability.Slot, error)
}

// BookingReader returns bookings with status booked or attended for the given slots.
type BookingReader interface {
	ActiveBySlots(ctx context.Context, tenantID string, slotIDs []string) ([]booking.Booking, error)
}

// Checker answers read-only questions about a trainer's schedule.
type Checker struct {
	profiles ProfileReader
	slots    SlotReader
	bookings BookingReader
}

func NewChecker(profiles ProfileReader, slots SlotReader, bookings BookingReader) *Checker {
	return &Checker{profiles: profiles, slots: slots, bookings: bookings}
}

// CheckConflict reports the active bookings that candidate would collide with.
func (c *Checker) CheckConflict(ctx context.Context, tenantID, trainerID string, candidate CandidateWindow) (*ConflictResult, error) {
	const op = "check_conflict"

	if err := candidate.Validate(); err != nil {
		metrics.RecordConflictCheck("invalid")
		logger.Warn("Rejected conflict check", "op", op, "trainer_id", trainerID, "error", err)
		return nil, err
	}

	slots, err := c.trainerSlots(ctx, op, tenantID, trainerID)
	if err != nil {
		metrics.RecordConflictCheck("error")
		return nil, err
	}

	var overlapping []availability.Slot
	for _, s := range slots {
		if candidate.ExcludeSlotID != "" && s.ID == candidate.ExcludeSlotID {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, s.Start, s.End) {
			overlapping = append(overlapping, s)
		}
	}

	result := &ConflictResult{}
	if len(overlapping) == 0 {
		metrics.RecordConflictCheck("clear")
		return result, nil
	}

	ids := make([]string, len(overlapping))
	for i, s := range overlapping {
		ids[i] = s.ID
	}

	active, err := c.bookings.ActiveBySlots(ctx, tenantID, ids)
	if err != nil {
		metrics.RecordConflictCheck("error")
		logger.Error("Failed to load bookings", "op", op, "trainer_id", trainerID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	bySlot := make(map[string][]booking.Booking, len(active))
	memberIDs := make([]string, 0, len(active))
	for _, b := range active {
		if !booking.IsActive(b.Status) {
			continue
		}
		bySlot[b.SlotID] = append(bySlot[b.SlotID], b)
		memberIDs = append(memberIDs, b.MemberID)
	}

	names := c.memberNames(ctx, tenantID, trainerID, memberIDs)

	for _, s := range overlapping {
		for _, b := range bySlot[s.ID] {
			name, ok := names[b.MemberID]
			if !ok || name == "" {
				name = UnknownMember
			}
			result.Conflicts = append(result.Conflicts, ConflictEntry{
				SlotID:        s.ID,
				Start:         s.Start,
				End:           s.End,
				Location:      s.Location,
				MemberName:    name,
				BookingStatus: b.Status,
			})
		}
	}
	result.HasConflict = len(result.Conflicts) > 0

	if result.HasConflict {
		metrics.RecordConflictCheck("conflict")
		logger.Info("Schedule conflict detected", "op", op, "trainer_id", trainerID, "conflicts", len(result.Conflicts))
	} else {
		metrics.RecordConflictCheck("clear")
	}
	return result, nil
}

// ListBookableSlots returns the trainer's slots that start after now and hold no active booking.
func (c *Checker) ListBookableSlots(ctx context.Context, tenantID, trainerID string, now time.Time) ([]availability.Slot, error) {
	const op = "list_bookable_slots"

	slots, err := c.trainerSlots(ctx, op, tenantID, trainerID)
	if err != nil {
		return nil, err
	}

	upcoming := make([]availability.Slot, 0, len(slots))
	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Start.After(now) {
			upcoming = append(upcoming, s)
			ids = append(ids, s.ID)
		}
	}
	if len(upcoming) == 0 {
		return upcoming, nil
	}

	active, err := c.bookings.ActiveBySlots(ctx, tenantID, ids)
	if err != nil {
		logger.Error("Failed to load bookings", "op", op, "trainer_id", trainerID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	taken := make(map[string]struct{}, len(active))
	for _, b := range active {
		if booking.IsActive(b.Status) {
			taken[b.SlotID] = struct{}{}
		}
	}

	bookable := make([]availability.Slot, 0, len(upcoming))
	for _, s := range upcoming {
		if _, ok := taken[s.ID]; !ok {
			bookable = append(bookable, s)
		}
	}
	return bookable, nil
}

// trainerSlots confirms trainerID is a trainer or owner and loads all of its slots.
// Both reads run concurrently.
func (c *Checker) trainerSlots(ctx context.Context, op, tenantID, trainerID string) ([]availability.Slot, error) {
	var (
		trainer *profile.Profile
		slots   []availability.Slot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.profiles.FindByID(gctx, tenantID, trainerID)
		if errors.Is(err, profile.ErrProfileNotFound) {
			return apperr.WithMessage(apperr.ErrNotFound, "trainer profile not found")
		}
		if err != nil {
			return apperr.Wrap(apperr.ErrUpstream, err, "")
		}
		if !p.CanTrain() {
			return apperr.WithMessage(apperr.ErrRoleMismatch, "profile is not a trainer")
		}
		trainer = p
		return nil
	})
	g.Go(func() error {
		s, err := c.slots.ListByTrainer(gctx, tenantID, trainerID)
		if err != nil {
			return apperr.Wrap(apperr.ErrUpstream, err, "")
		}
		slots = s
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, apperr.ErrUpstream) {
			logger.Error("Schedule read failed", "op", op, "trainer_id", trainerID, "error", err)
		} else {
			logger.Warn("Schedule read rejected", "op", op, "trainer_id", trainerID, "error", err)
		}
		return nil, err
	}

	logger.Debug("Loaded trainer schedule", "op", op, "trainer_id", trainer.ID, "slots", len(slots))
	return slots, nil
}

// memberNames resolves display names. Lookup failures degrade to UnknownMember.
func (c *Checker) memberNames(ctx context.Context, tenantID, trainerID string, ids []string) map[string]string {
	if len(ids) == 0 {
		return nil
	}
	names, err := c.profiles.FindNames(ctx, tenantID, ids)
	if err != nil {
		logger.Warn("Failed to resolve member names", "op", "check_conflict", "trainer_id", trainerID, "error", err)
		return nil
	}
	return names
}
