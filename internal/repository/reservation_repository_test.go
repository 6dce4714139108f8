package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/reservation-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "classroom_id", "activity_name", "description",
		"date", "time_slot", "status", "teacher_id", "participants",
		"created_at", "updated_at",
	})
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestReservationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations")).
		WithArgs("room-1", date, "3-4", "").
		WillReturnRows(countRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reservation := models.Reservation{
		StudentID:    "student-1",
		ClassroomID:  "room-1",
		ActivityName: "debate club",
		Date:         date,
		TimeSlot:     "3-4",
		Status:       models.ReservationStatusPending,
		Participants: 12,
	}
	err := repo.Create(context.Background(), &reservation)
	require.NoError(t, err)
	assert.NotEmpty(t, reservation.ID)
	assert.False(t, reservation.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryCreateConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations")).
		WithArgs("room-1", date, "3-4", "").
		WillReturnRows(countRow(1))
	mock.ExpectRollback()

	reservation := models.Reservation{
		StudentID:    "student-1",
		ClassroomID:  "room-1",
		ActivityName: "debate club",
		Date:         date,
		TimeSlot:     "3-4",
		Status:       models.ReservationStatusPending,
	}
	err := repo.Create(context.Background(), &reservation)
	require.Error(t, err)

	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.SourceReservation, conflict.Source)
	assert.Equal(t, "room-1", conflict.ClassroomID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryCreateUnknownClassroom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-404").
		WillReturnRows(existsRow(false))
	mock.ExpectRollback()

	reservation := models.Reservation{
		StudentID:    "student-1",
		ClassroomID:  "room-404",
		ActivityName: "debate club",
		Date:         time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		TimeSlot:     "3-4",
	}
	err := repo.Create(context.Background(), &reservation)
	require.Error(t, err)

	var missing *models.MissingReferenceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "classroom", missing.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryCreateCrossLedgerConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, true)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations")).
		WithArgs("room-1", date, "3-4", "").
		WillReturnRows(countRow(0))
	// an active usage record occupies the same slot
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, time_slot FROM usage_records")).
		WithArgs("room-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "time_slot"}).
			AddRow("usage-7", date, "3-4"))
	mock.ExpectRollback()

	reservation := models.Reservation{
		StudentID:    "student-1",
		ClassroomID:  "room-1",
		ActivityName: "debate club",
		Date:         date,
		TimeSlot:     "3-4",
	}
	err := repo.Create(context.Background(), &reservation)
	require.Error(t, err)

	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.SourceUsageRecord, conflict.Source)
	assert.Equal(t, "usage-7", conflict.ExistingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryUpdateStatusOnlySkipsConflictScan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("res-1").
		WillReturnRows(reservationRows().
			AddRow("res-1", "student-1", "room-1", "debate club", nil,
				date, "3-4", "pending", nil, 12, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	approved := models.ReservationStatusApproved
	updated, err := repo.Update(context.Background(), "res-1", models.ReservationPatch{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, "approved", updated.Status)
	assert.Equal(t, "3-4", updated.TimeSlot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryUpdateSlotChangeRechecksConflicts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("res-1").
		WillReturnRows(reservationRows().
			AddRow("res-1", "student-1", "room-1", "debate club", nil,
				date, "3-4", "pending", nil, 12, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	// conflict scan excludes the row being updated
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations")).
		WithArgs("room-1", date, "5-6", "res-1").
		WillReturnRows(countRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slot := "5-6"
	updated, err := repo.Update(context.Background(), "res-1", models.ReservationPatch{TimeSlot: &slot})
	require.NoError(t, err)
	assert.Equal(t, "5-6", updated.TimeSlot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("res-404").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "res-404", models.ReservationPatch{})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations WHERE id = $1")).
		WithArgs("res-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "res-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReservationRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE 1=1 AND student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(reservationRows().
			AddRow("res-1", "student-1", "room-1", "debate club", nil,
				date, "3-4", "approved", nil, 12, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE 1=1 AND student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(countRow(1))

	reservations, total, err := repo.List(context.Background(), models.ReservationFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reservations, 1)
	assert.Equal(t, "res-1", reservations[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
