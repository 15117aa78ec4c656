package booking

import (
	"context"
	"errors"
	"time"

	"treinopp/internal/apperr"
	"treinopp/internal/auth"
	"treinopp/internal/availability"
	"treinopp/internal/logger"
	"treinopp/internal/metrics"
	"treinopp/internal/notify"
	"treinopp/internal/profile"
)

// SlotFinder is the slice of the availability store the booking flow needs.
type SlotFinder interface {
	GetByID(ctx context.Context, tenantID, id string) (*availability.Slot, error)
}

// ProfileFinder resolves notification recipients.
type ProfileFinder interface {
	FindByID(ctx context.Context, tenantID, id string) (*profile.Profile, error)
}

type Service interface {
	Book(ctx context.Context, caller auth.Identity, slotID string) (*Booking, error)
	Cancel(ctx context.Context, caller auth.Identity, bookingID string) error
	MarkAttended(ctx context.Context, caller auth.Identity, bookingID string) error
	ListMine(ctx context.Context, caller auth.Identity) ([]BookingWithDetails, error)
}

type service struct {
	repo     Repository
	slots    SlotFinder
	profiles ProfileFinder
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(repo Repository, slots SlotFinder, profiles ProfileFinder, notifier notify.Notifier) Service {
	return &service{
		repo:     repo,
		slots:    slots,
		profiles: profiles,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) Book(ctx context.Context, caller auth.Identity, slotID string) (*Booking, error) {
	slot, err := s.slots.GetByID(ctx, caller.TenantID, slotID)
	if err != nil {
		if errors.Is(err, availability.ErrSlotNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "slot not found")
		}
		logger.Error("Failed to load slot for booking", "op", "book", "slot_id", slotID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	if !slot.Start.After(s.now()) {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "cannot book a slot in the past")
	}

	created, err := s.repo.Create(ctx, caller.TenantID, slotID, caller.UserID)
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		metrics.RecordBooking("unavailable")
		return nil, apperr.WithMessage(apperr.ErrConflict, "slot is no longer available")
	case errors.Is(err, ErrSlotNotFound):
		return nil, apperr.WithMessage(apperr.ErrNotFound, "slot not found")
	case err != nil:
		metrics.RecordBooking("error")
		logger.Error("Failed to create booking", "op", "book", "trainer_id", slot.TrainerID, "slot_id", slotID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	metrics.RecordBooking("created")
	logger.Info("Booking created", "booking_id", created.ID, "trainer_id", slot.TrainerID, "member_id", caller.UserID)

	member, err := s.profiles.FindByID(ctx, caller.TenantID, caller.UserID)
	memberName := "Um aluno"
	if err == nil {
		memberName = member.Name
	}
	s.notifyProfile(ctx, caller.TenantID, slot.TrainerID, func(r notify.Recipient) []notify.Job {
		return notify.BookingCreated(r, memberName, slot.Start, slot.Location)
	})

	return created, nil
}

func (s *service) Cancel(ctx context.Context, caller auth.Identity, bookingID string) error {
	b, err := s.load(ctx, caller, bookingID, "cancel")
	if err != nil {
		return err
	}

	isMember := b.MemberID == caller.UserID
	if !isMember && !canManage(caller, b) {
		return apperr.WithMessage(apperr.ErrForbidden, "you can only cancel your own bookings")
	}

	if err := s.transition(ctx, caller, b, StatusBooked, StatusCancelled); err != nil {
		return err
	}

	notifyID := b.TrainerID
	if !isMember {
		notifyID = b.MemberID
	}
	s.notifyProfile(ctx, caller.TenantID, notifyID, func(r notify.Recipient) []notify.Job {
		return notify.BookingCancelled(r, b.SlotStart, b.Location)
	})

	return nil
}

func (s *service) MarkAttended(ctx context.Context, caller auth.Identity, bookingID string) error {
	b, err := s.load(ctx, caller, bookingID, "attend")
	if err != nil {
		return err
	}

	if !canManage(caller, b) {
		return apperr.WithMessage(apperr.ErrForbidden, "only the trainer can mark attendance")
	}

	return s.transition(ctx, caller, b, StatusBooked, StatusAttended)
}

func (s *service) ListMine(ctx context.Context, caller auth.Identity) ([]BookingWithDetails, error) {
	bookings, err := s.repo.ListByMember(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		logger.Error("Failed to list bookings", "op", "list_mine", "member_id", caller.UserID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}
	if bookings == nil {
		bookings = []BookingWithDetails{}
	}
	return bookings, nil
}

func (s *service) load(ctx context.Context, caller auth.Identity, bookingID, op string) (*BookingWithDetails, error) {
	b, err := s.repo.GetByID(ctx, caller.TenantID, bookingID)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, apperr.WithMessage(apperr.ErrNotFound, "booking not found")
	}
	if err != nil {
		logger.Error("Failed to load booking", "op", op, "booking_id", bookingID, "error", err)
		return nil, apperr.Wrap(apperr.ErrUpstream, err, "")
	}
	return b, nil
}

func (s *service) transition(ctx context.Context, caller auth.Identity, b *BookingWithDetails, from, to string) error {
	err := s.repo.UpdateStatus(ctx, caller.TenantID, b.ID, from, to)
	if errors.Is(err, ErrStatusTransition) {
		return apperr.WithMessage(apperr.ErrConflict, "booking is not "+from)
	}
	if err != nil {
		logger.Error("Failed to update booking", "op", to, "trainer_id", b.TrainerID, "booking_id", b.ID, "error", err)
		return apperr.Wrap(apperr.ErrUpstream, err, "")
	}

	metrics.RecordBookingTransition(to)
	logger.Info("Booking updated", "booking_id", b.ID, "status", to, "by", caller.UserID)
	return nil
}

// notifyProfile queues jobs for a profile. Failures are logged and never fail the caller.
func (s *service) notifyProfile(ctx context.Context, tenantID, profileID string, build func(notify.Recipient) []notify.Job) {
	p, err := s.profiles.FindByID(ctx, tenantID, profileID)
	if err != nil {
		logger.Warn("Skipping notification, profile lookup failed", "profile_id", profileID, "error", err)
		return
	}

	jobs := build(notify.Recipient{Name: p.Name, Email: p.Email, PushToken: p.FCMToken})
	if len(jobs) == 0 {
		return
	}
	if err := s.notifier.Enqueue(ctx, jobs...); err != nil {
		logger.Warn("Failed to queue notification", "profile_id", profileID, "error", err)
	}
}

func canManage(caller auth.Identity, b *BookingWithDetails) bool {
	return caller.UserID == b.TrainerID || caller.Role == profile.RoleOwner
}
