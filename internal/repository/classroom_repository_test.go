package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/reservation-api/internal/models"
)

func classroomRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "college_id", "code", "capacity", "location", "equipment",
		"status", "desk_capacity", "air_conditioner_count",
		"multimedia_equipment", "photo_url", "created_at", "updated_at",
	})
}

func TestClassroomRepositoryFindAvailable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db, false)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	window, ok := models.SlotInterval("3-4", date)
	require.True(t, ok)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("NOT EXISTS")).
		WithArgs(date, "3-4", window.Start, window.End).
		WillReturnRows(classroomRows().
			AddRow("room-1", nil, "A-101", 60, "Building A", nil,
				"available", nil, nil, nil, nil, now, now))

	filter := models.ClassroomFilter{Date: &date, TimeSlot: "3-4"}
	classrooms, err := repo.FindAvailable(context.Background(), filter, window)
	require.NoError(t, err)
	require.Len(t, classrooms, 1)
	assert.Equal(t, "A-101", classrooms[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryFindAvailableCollegeFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db, true)

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	window, ok := models.SlotInterval("5-6", date)
	require.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses")).
		WithArgs(date, "5-6", window.Start, window.End, "college-1").
		WillReturnRows(classroomRows())

	filter := models.ClassroomFilter{CollegeID: "college-1", Date: &date, TimeSlot: "5-6"}
	classrooms, err := repo.FindAvailable(context.Background(), filter, window)
	require.NoError(t, err)
	assert.Empty(t, classrooms)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db, false)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN")).
		WithArgs("room-1", "room-2").
		WillReturnRows(classroomRows().
			AddRow("room-1", nil, "A-101", 60, "Building A", nil,
				"available", nil, nil, nil, nil, now, now).
			AddRow("room-2", nil, "A-102", 40, "Building A", nil,
				"available", nil, nil, nil, nil, now, now))

	classrooms, err := repo.FindByIDs(context.Background(), []string{"room-1", "room-2"})
	require.NoError(t, err)
	assert.Len(t, classrooms, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryFindByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db, false)

	classrooms, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, classrooms)
}
