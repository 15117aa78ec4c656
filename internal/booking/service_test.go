package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"treinopp/internal/apperr"
	"treinopp/internal/auth"
	"treinopp/internal/availability"
	"treinopp/internal/notify"
	"treinopp/internal/profile"
)

type MockBookingRepo struct{ mock.Mock }
type MockSlotFinder struct{ mock.Mock }
type MockProfileFinder struct{ mock.Mock }
type MockNotifier struct{ mock.Mock }

func (m *MockBookingRepo) Create(ctx context.Context, tenantID, slotID, memberID string) (*Booking, error) {
	args := m.Called(ctx, tenantID, slotID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, tenantID, id string) (*BookingWithDetails, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingWithDetails), args.Error(1)
}

func (m *MockBookingRepo) ActiveBySlots(ctx context.Context, tenantID string, slotIDs []string) ([]Booking, error) {
	args := m.Called(ctx, tenantID, slotIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, tenantID, id, from, to string) error {
	return m.Called(ctx, tenantID, id, from, to).Error(0)
}

func (m *MockBookingRepo) ListByMember(ctx context.Context, tenantID, memberID string) ([]BookingWithDetails, error) {
	args := m.Called(ctx, tenantID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockSlotFinder) GetByID(ctx context.Context, tenantID, id string) (*availability.Slot, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availability.Slot), args.Error(1)
}

func (m *MockProfileFinder) FindByID(ctx context.Context, tenantID, id string) (*profile.Profile, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockNotifier) Enqueue(ctx context.Context, jobs ...notify.Job) error {
	return m.Called(ctx, jobs).Error(0)
}

const tenant = "tenant-1"

var (
	member  = auth.Identity{UserID: "member-1", TenantID: tenant, Role: profile.RoleStudent}
	trainer = auth.Identity{UserID: "trainer-1", TenantID: tenant, Role: profile.RoleTrainer}
	owner   = auth.Identity{UserID: "owner-1", TenantID: tenant, Role: profile.RoleOwner}
)

type mocks struct {
	repo     *MockBookingRepo
	slots    *MockSlotFinder
	profiles *MockProfileFinder
	notifier *MockNotifier
}

func newTestService(now time.Time) (*service, mocks) {
	m := mocks{
		repo:     new(MockBookingRepo),
		slots:    new(MockSlotFinder),
		profiles: new(MockProfileFinder),
		notifier: new(MockNotifier),
	}
	svc := NewService(m.repo, m.slots, m.profiles, m.notifier).(*service)
	svc.now = func() time.Time { return now }
	return svc, m
}

func TestService_Book(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	future := &availability.Slot{ID: "slot-1", TenantID: tenant, TrainerID: "trainer-1", Start: now.Add(24 * time.Hour), End: now.Add(25 * time.Hour), Location: "Sala 1"}
	past := &availability.Slot{ID: "slot-0", TenantID: tenant, TrainerID: "trainer-1", Start: now.Add(-time.Hour), End: now}

	tests := []struct {
		name       string
		slotID     string
		setupMocks func(m mocks)
		wantKind   *apperr.Error
	}{
		{
			name:   "Success notifies trainer",
			slotID: "slot-1",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "slot-1").Return(future, nil)
				m.repo.On("Create", mock.Anything, tenant, "slot-1", "member-1").
					Return(&Booking{ID: "b-1", SlotID: "slot-1", MemberID: "member-1", Status: StatusBooked}, nil)
				m.profiles.On("FindByID", mock.Anything, tenant, "member-1").Return(&profile.Profile{ID: "member-1", Name: "Bruno"}, nil)
				m.profiles.On("FindByID", mock.Anything, tenant, "trainer-1").
					Return(&profile.Profile{ID: "trainer-1", Name: "Ana", Email: "ana@example.com"}, nil)
				m.notifier.On("Enqueue", mock.Anything, mock.MatchedBy(func(jobs []notify.Job) bool {
					return len(jobs) == 1 && jobs[0].Kind == notify.KindBookingCreated && jobs[0].To == "ana@example.com"
				})).Return(nil)
			},
		},
		{
			name:   "Slot not found",
			slotID: "missing",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "missing").Return(nil, availability.ErrSlotNotFound)
			},
			wantKind: apperr.ErrNotFound,
		},
		{
			name:   "Slot lookup fails",
			slotID: "slot-1",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "slot-1").Return(nil, errors.New("db down"))
			},
			wantKind: apperr.ErrUpstream,
		},
		{
			name:   "Slot in the past",
			slotID: "slot-0",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "slot-0").Return(past, nil)
			},
			wantKind: apperr.ErrInvalidInput,
		},
		{
			name:   "Slot already taken",
			slotID: "slot-1",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "slot-1").Return(future, nil)
				m.repo.On("Create", mock.Anything, tenant, "slot-1", "member-1").Return(nil, ErrSlotUnavailable)
			},
			wantKind: apperr.ErrConflict,
		},
		{
			name:   "Notification failure does not fail booking",
			slotID: "slot-1",
			setupMocks: func(m mocks) {
				m.slots.On("GetByID", mock.Anything, tenant, "slot-1").Return(future, nil)
				m.repo.On("Create", mock.Anything, tenant, "slot-1", "member-1").
					Return(&Booking{ID: "b-1", SlotID: "slot-1", MemberID: "member-1", Status: StatusBooked}, nil)
				m.profiles.On("FindByID", mock.Anything, tenant, "member-1").Return(nil, profile.ErrProfileNotFound)
				m.profiles.On("FindByID", mock.Anything, tenant, "trainer-1").
					Return(&profile.Profile{ID: "trainer-1", Name: "Ana", FCMToken: "tok"}, nil)
				m.notifier.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(now)
			tt.setupMocks(m)

			b, err := svc.Book(context.Background(), member, tt.slotID)

			if tt.wantKind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantKind)
				assert.Nil(t, b)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "b-1", b.ID)
			}
			m.repo.AssertExpectations(t)
			m.notifier.AssertExpectations(t)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	booked := &BookingWithDetails{
		Booking:   Booking{ID: "b-1", TenantID: tenant, SlotID: "slot-1", MemberID: "member-1", Status: StatusBooked},
		TrainerID: "trainer-1",
		SlotStart: now.Add(time.Hour),
		Location:  "Sala 1",
	}

	t.Run("Member cancels and trainer is notified", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusCancelled).Return(nil)
		m.profiles.On("FindByID", mock.Anything, tenant, "trainer-1").Return(&profile.Profile{Name: "Ana", Email: "ana@example.com"}, nil)
		m.notifier.On("Enqueue", mock.Anything, mock.MatchedBy(func(jobs []notify.Job) bool {
			return len(jobs) == 1 && jobs[0].Kind == notify.KindBookingCancelled
		})).Return(nil)

		require.NoError(t, svc.Cancel(context.Background(), member, "b-1"))
		m.repo.AssertExpectations(t)
		m.notifier.AssertExpectations(t)
	})

	t.Run("Trainer cancels and member is notified", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusCancelled).Return(nil)
		m.profiles.On("FindByID", mock.Anything, tenant, "member-1").Return(&profile.Profile{Name: "Bruno"}, nil)

		require.NoError(t, svc.Cancel(context.Background(), trainer, "b-1"))
		m.profiles.AssertExpectations(t)
		m.notifier.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("Other member is forbidden", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)

		other := auth.Identity{UserID: "member-2", TenantID: tenant, Role: profile.RoleStudent}
		err := svc.Cancel(context.Background(), other, "b-1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Already cancelled", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusCancelled).Return(ErrStatusTransition)

		err := svc.Cancel(context.Background(), member, "b-1")
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("Not found", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "nope").Return(nil, ErrBookingNotFound)

		err := svc.Cancel(context.Background(), member, "nope")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_MarkAttended(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	booked := &BookingWithDetails{
		Booking:   Booking{ID: "b-1", TenantID: tenant, SlotID: "slot-1", MemberID: "member-1", Status: StatusBooked},
		TrainerID: "trainer-1",
	}

	t.Run("Trainer marks attendance", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusAttended).Return(nil)

		require.NoError(t, svc.MarkAttended(context.Background(), trainer, "b-1"))
		m.repo.AssertExpectations(t)
	})

	t.Run("Owner marks attendance", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusAttended).Return(nil)

		require.NoError(t, svc.MarkAttended(context.Background(), owner, "b-1"))
	})

	t.Run("Member cannot mark attendance", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)

		err := svc.MarkAttended(context.Background(), member, "b-1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("Storage failure", func(t *testing.T) {
		svc, m := newTestService(now)
		m.repo.On("GetByID", mock.Anything, tenant, "b-1").Return(booked, nil)
		m.repo.On("UpdateStatus", mock.Anything, tenant, "b-1", StatusBooked, StatusAttended).Return(errors.New("timeout"))

		err := svc.MarkAttended(context.Background(), trainer, "b-1")
		assert.ErrorIs(t, err, apperr.ErrUpstream)
	})
}

func TestService_ListMine(t *testing.T) {
	svc, m := newTestService(time.Now())
	m.repo.On("ListByMember", mock.Anything, tenant, "member-1").Return(nil, nil)

	bookings, err := svc.ListMine(context.Background(), member)
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive(StatusBooked))
	assert.True(t, IsActive(StatusAttended))
	assert.False(t, IsActive(StatusCancelled))
	assert.False(t, IsActive(""))
}
