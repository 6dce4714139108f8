package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/reservation-api/internal/models"
)

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "course_name", "classroom_id", "start_time",
		"end_time", "status", "teacher_id", "time_slot", "created_at", "updated_at",
	})
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, false)

	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules")).
		WithArgs("room-1", start, end, "").
		WillReturnRows(countRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	schedule := models.Schedule{
		StudentID:   "student-1",
		CourseName:  "Linear Algebra",
		ClassroomID: "room-1",
		StartTime:   start,
		EndTime:     end,
		Status:      models.ScheduleStatusScheduled,
	}
	err := repo.Create(context.Background(), &schedule)
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateOverlap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, false)

	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules")).
		WithArgs("room-1", start, end, "").
		WillReturnRows(countRow(1))
	mock.ExpectRollback()

	schedule := models.Schedule{
		StudentID:   "student-1",
		CourseName:  "Linear Algebra",
		ClassroomID: "room-1",
		StartTime:   start,
		EndTime:     end,
		Status:      models.ScheduleStatusScheduled,
	}
	err := repo.Create(context.Background(), &schedule)
	require.Error(t, err)

	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.SourceSchedule, conflict.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateCrossLedgerMidnightSpan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, true)

	start := time.Date(2025, 3, 3, 23, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	day1 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules")).
		WithArgs("room-1", start, end, "").
		WillReturnRows(countRow(0))
	// the window touches both calendar days, so each one gets a slot scan
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, time_slot FROM reservations")).
		WithArgs("room-1", day1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "time_slot"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, time_slot FROM reservations")).
		WithArgs("room-1", day2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "time_slot"}).
			AddRow("res-9", day2, "1-2"))
	mock.ExpectRollback()

	schedule := models.Schedule{
		StudentID:   "student-1",
		CourseName:  "Observatory Night Lab",
		ClassroomID: "room-1",
		StartTime:   start,
		EndTime:     end,
		Status:      models.ScheduleStatusScheduled,
	}
	err := repo.Create(context.Background(), &schedule)
	require.Error(t, err)

	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.SourceReservation, conflict.Source)
	assert.Equal(t, "res-9", conflict.ExistingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListForStudentRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, false)

	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	start := from.Add(10 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("start_time >= $2 AND start_time < $3")).
		WithArgs("student-1", from, to).
		WillReturnRows(scheduleRows().
			AddRow("sched-1", "student-1", "Linear Algebra", "room-1",
				start, start.Add(100*time.Minute), "scheduled", nil, nil, now, now))

	schedules, err := repo.ListForStudentRange(context.Background(), "student-1", from, to)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "Linear Algebra", schedules[0].CourseName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListForStudentRangeExclusiveUpperBound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, false)

	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	// an entry starting exactly at the next Monday midnight must stay
	// outside the window, so the query has to use a strict upper bound
	mock.ExpectQuery(regexp.QuoteMeta("start_time >= $2 AND start_time < $3")).
		WithArgs("student-1", from, to).
		WillReturnRows(scheduleRows())

	schedules, err := repo.ListForStudentRange(context.Background(), "student-1", from, to)
	require.NoError(t, err)
	assert.Empty(t, schedules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateIntervalChangeExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, false)

	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)
	newEnd := end.Add(20 * time.Minute)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("sched-1").
		WillReturnRows(scheduleRows().
			AddRow("sched-1", "student-1", "Linear Algebra", "room-1",
				start, end, "scheduled", nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)")).
		WithArgs("room-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)")).
		WithArgs("student-1").
		WillReturnRows(existsRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules")).
		WithArgs("room-1", start, newEnd, "sched-1").
		WillReturnRows(countRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), "sched-1", models.SchedulePatch{EndTime: &newEnd})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}
