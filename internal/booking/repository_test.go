package booking

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bookingCols = []string{"id", "tenant_id", "slot_id", "member_id", "status", "created_at"}
	detailCols  = append(append([]string{}, bookingCols...), "trainer_id", "slot_start", "slot_end", "location")
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// expectSlotLock expects the trainer row lock before the slot row lock.
func expectSlotLock(mock sqlmock.Sqlmock, start time.Time) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT trainer_id FROM availability_slots WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-1", "slot-1").
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id"}).AddRow("trainer-1"))
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1 FROM profiles WHERE tenant_id = $1 AND id = $2 FOR UPDATE")).
		WithArgs("tenant-1", "trainer-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT trainer_id, start_time, end_time FROM availability_slots WHERE tenant_id = $1 AND id = $2 FOR UPDATE")).
		WithArgs("tenant-1", "slot-1").
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "start_time", "end_time"}).
			AddRow("trainer-1", start, start.Add(time.Hour)))
}

func TestCreate(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	expectSlotLock(mock, start)
	mock.ExpectQuery(`INSERT INTO bookings \(tenant_id, slot_id, member_id, status\) SELECT \$1, \$2, \$3, 'booked' WHERE NOT EXISTS`).
		WithArgs("tenant-1", "slot-1", "member-1", "trainer-1", start, start.Add(time.Hour)).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("b-1", "tenant-1", "slot-1", "member-1", StatusBooked, start))
	mock.ExpectCommit()

	b, err := repo.Create(context.Background(), "tenant-1", "slot-1", "member-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.Equal(t, StatusBooked, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSlotTaken(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	expectSlotLock(mock, start)
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "tenant-1", "slot-1", "member-1")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUniqueViolation(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	expectSlotLock(mock, start)
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "tenant-1", "slot-1", "member-1")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSlotMissing(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trainer_id FROM availability_slots`).
		WithArgs("tenant-1", "slot-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "tenant-1", "slot-1", "member-1")
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMalformedSlotID(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trainer_id FROM availability_slots`).
		WithArgs("tenant-1", "abc").
		WillReturnError(&pq.Error{Code: "22P02"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "tenant-1", "abc", "member-1")
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSlotMovedToAnotherTrainer(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trainer_id FROM availability_slots`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id"}).AddRow("trainer-1"))
	mock.ExpectExec(`SELECT 1 FROM profiles .* FOR UPDATE`).
		WithArgs("tenant-1", "trainer-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT trainer_id, start_time, end_time FROM availability_slots .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "start_time", "end_time"}).
			AddRow("trainer-2", start, start.Add(time.Hour)))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "tenant-1", "slot-1", "member-1")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM bookings b JOIN availability_slots s ON s.id = b.slot_id WHERE b.tenant_id = \$1 AND b.id = \$2`).
		WithArgs("tenant-1", "b-1").
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow("b-1", "tenant-1", "slot-1", "member-1", StatusBooked, start, "trainer-1", start, start.Add(time.Hour), "Sala 1"))

	b, err := repo.GetByID(context.Background(), "tenant-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, "trainer-1", b.TrainerID)
	assert.Equal(t, "Sala 1", b.Location)
	assert.Equal(t, start, b.SlotStart)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(`FROM bookings b`).
		WithArgs("tenant-1", "nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "tenant-1", "nope")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetByIDMalformedID(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(`FROM bookings b`).
		WithArgs("tenant-1", "abc").
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := repo.GetByID(context.Background(), "tenant-1", "abc")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestActiveBySlots(t *testing.T) {
	repo, mock := setupMock(t)
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE tenant_id = $1 AND slot_id = ANY($2) AND status IN ('booked', 'attended')")).
		WithArgs("tenant-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("b-1", "tenant-1", "slot-1", "member-1", StatusBooked, now).
			AddRow("b-2", "tenant-1", "slot-2", "member-2", StatusAttended, now))

	bookings, err := repo.ActiveBySlots(context.Background(), "tenant-1", []string{"slot-1", "slot-2"})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, StatusAttended, bookings[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveBySlotsEmpty(t *testing.T) {
	repo, mock := setupMock(t)

	bookings, err := repo.ActiveBySlots(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	assert.Nil(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveBySlotsError(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(`FROM bookings`).WillReturnError(errors.New("connection refused"))

	_, err := repo.ActiveBySlots(context.Background(), "tenant-1", []string{"slot-1"})
	assert.Error(t, err)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := setupMock(t)
	query := regexp.QuoteMeta("UPDATE bookings SET status = $4 WHERE tenant_id = $1 AND id = $2 AND status = $3")

	mock.ExpectExec(query).
		WithArgs("tenant-1", "b-1", StatusBooked, StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "tenant-1", "b-1", StatusBooked, StatusCancelled))

	mock.ExpectExec(query).
		WithArgs("tenant-1", "b-2", StatusBooked, StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "tenant-1", "b-2", StatusBooked, StatusCancelled)
	assert.ErrorIs(t, err, ErrStatusTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByMember(t *testing.T) {
	repo, mock := setupMock(t)
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE b.tenant_id = \$1 AND b.member_id = \$2 ORDER BY s.start_time DESC`).
		WithArgs("tenant-1", "member-1").
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow("b-1", "tenant-1", "slot-1", "member-1", StatusCancelled, start, "trainer-1", start, start.Add(time.Hour), ""))

	bookings, err := repo.ListByMember(context.Background(), "tenant-1", "member-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, StatusCancelled, bookings[0].Status)
}
