package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type reservationSourceStub struct {
	reservations []models.Reservation
	err          error
	calls        int
}

func (s *reservationSourceStub) ListApprovedForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Reservation, error) {
	s.calls++
	return s.reservations, s.err
}

type scheduleSourceStub struct {
	schedules []models.Schedule
	err       error
	from      time.Time
	to        time.Time
}

func (s *scheduleSourceStub) ListForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Schedule, error) {
	s.from = from
	s.to = to
	return s.schedules, s.err
}

type classroomSourceStub struct {
	classrooms []models.Classroom
}

func (s *classroomSourceStub) FindByIDs(ctx context.Context, ids []string) ([]models.Classroom, error) {
	return s.classrooms, nil
}

type teacherSourceStub struct {
	teachers []models.Teacher
}

func (s *teacherSourceStub) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	return s.teachers, nil
}

type studentSourceStub struct {
	err error
}

func (s *studentSourceStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Student{ID: id}, nil
}

type timetableStoreStub struct {
	stored   map[string]*models.WeeklyTimetable
	setKeys  []string
	setTTL   time.Duration
	getCalls int
}

func newTimetableStoreStub() *timetableStoreStub {
	return &timetableStoreStub{stored: map[string]*models.WeeklyTimetable{}}
}

func (s *timetableStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.getCalls++
	cached, ok := s.stored[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.WeeklyTimetable) = *cached
	return nil
}

func (s *timetableStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setTTL = ttl
	s.stored[key] = value.(*models.WeeklyTimetable)
	return nil
}

var semesterStart = time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)

func newTimetableService(
	reservations *reservationSourceStub,
	schedules *scheduleSourceStub,
	store *timetableStoreStub,
) *TimetableService {
	var cache timetableStore
	if store != nil {
		cache = store
	}
	return NewTimetableService(
		reservations,
		schedules,
		&classroomSourceStub{classrooms: []models.Classroom{
			{ID: "room-1", Code: "A-101"},
			{ID: "room-2", Code: "B-202"},
		}},
		&teacherSourceStub{teachers: []models.Teacher{
			{ID: "teacher-1", FullName: "Dr. Chen"},
		}},
		&studentSourceStub{},
		cache,
		semesterStart,
		5*time.Minute,
		zap.NewNop(),
		nil,
	)
}

func TestTimetableWeekRange(t *testing.T) {
	svc := newTimetableService(&reservationSourceStub{}, &scheduleSourceStub{}, nil)

	start, end := svc.WeekRange(1)
	assert.Equal(t, semesterStart, start)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), end)

	start, end = svc.WeekRange(2)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), end)
}

func TestTimetableGetWeekly(t *testing.T) {
	teacherID := "teacher-1"
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	schedules := &scheduleSourceStub{schedules: []models.Schedule{
		{
			ID:          "sched-2",
			StudentID:   "student-1",
			CourseName:  "Operating Systems",
			ClassroomID: "room-2",
			StartTime:   monday.Add(14 * time.Hour),
			EndTime:     monday.Add(15*time.Hour + 40*time.Minute),
			Status:      models.ScheduleStatusScheduled,
		},
		{
			ID:          "sched-1",
			StudentID:   "student-1",
			CourseName:  "Linear Algebra",
			ClassroomID: "room-1",
			StartTime:   monday.Add(10 * time.Hour),
			EndTime:     monday.Add(11*time.Hour + 40*time.Minute),
			Status:      models.ScheduleStatusScheduled,
			TeacherID:   &teacherID,
		},
		{
			ID:          "sched-3",
			StudentID:   "student-1",
			CourseName:  "Dropped Seminar",
			ClassroomID: "room-1",
			StartTime:   monday.Add(16 * time.Hour),
			EndTime:     monday.Add(17 * time.Hour),
			Status:      models.ScheduleStatusCancelled,
		},
	}}
	reservations := &reservationSourceStub{reservations: []models.Reservation{
		{
			ID:           "res-1",
			StudentID:    "student-1",
			ClassroomID:  "room-1",
			ActivityName: "debate club",
			Date:         wednesday,
			TimeSlot:     "5-6",
			Status:       models.ReservationStatusApproved,
		},
		{
			ID:           "res-2",
			StudentID:    "student-1",
			ClassroomID:  "room-1",
			ActivityName: "legacy booking",
			Date:         wednesday,
			TimeSlot:     "lunch",
			Status:       models.ReservationStatusApproved,
		},
	}}
	store := newTimetableStoreStub()
	svc := newTimetableService(reservations, schedules, store)

	timetable, err := svc.GetWeekly(context.Background(), "student-1", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, timetable.Week)
	assert.Equal(t, "2025-03-03", timetable.StartDate)
	assert.Equal(t, "2025-03-09", timetable.EndDate)

	// every day key is present even when empty
	require.Len(t, timetable.Schedule, 7)
	for _, day := range models.DayNames {
		_, ok := timetable.Schedule[day]
		assert.True(t, ok, day)
	}

	monday3 := timetable.Schedule["Monday"]
	require.Len(t, monday3, 2)
	assert.Equal(t, "sched-1", monday3[0].RefID)
	assert.Equal(t, models.TimetableItemCourse, monday3[0].ItemType)
	assert.Equal(t, "A-101", monday3[0].Location)
	assert.Equal(t, "Dr. Chen", monday3[0].TeacherName)
	assert.Equal(t, "sched-2", monday3[1].RefID)
	assert.Equal(t, "B-202", monday3[1].Location)

	wed := timetable.Schedule["Wednesday"]
	require.Len(t, wed, 1)
	assert.Equal(t, models.TimetableItemActivity, wed[0].ItemType)
	assert.Equal(t, "debate club", wed[0].Title)
	assert.Equal(t, 14, wed[0].StartTime.Hour())
	assert.Equal(t, 40, wed[0].EndTime.Minute())

	assert.Empty(t, timetable.Schedule["Sunday"])
	assert.Equal(t, []string{"timetable:student-1:2"}, store.setKeys)
	assert.Equal(t, 5*time.Minute, store.setTTL)
}

// filteringScheduleSource applies the repository's half-open window
// contract to its rows so boundary handling is exercised end to end.
type filteringScheduleSource struct {
	schedules []models.Schedule
}

func (s *filteringScheduleSource) ListForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Schedule, error) {
	var matched []models.Schedule
	for _, schedule := range s.schedules {
		if !schedule.StartTime.Before(from) && schedule.StartTime.Before(to) {
			matched = append(matched, schedule)
		}
	}
	return matched, nil
}

func TestTimetableGetWeeklyExcludesNextWeekMidnight(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	nextMonday := monday.AddDate(0, 0, 7)

	schedules := &filteringScheduleSource{schedules: []models.Schedule{
		{
			ID:          "sched-1",
			StudentID:   "student-1",
			CourseName:  "Linear Algebra",
			ClassroomID: "room-1",
			StartTime:   monday.Add(10 * time.Hour),
			EndTime:     monday.Add(11*time.Hour + 40*time.Minute),
			Status:      models.ScheduleStatusScheduled,
		},
		{
			ID:          "sched-next",
			StudentID:   "student-1",
			CourseName:  "Midnight Lab",
			ClassroomID: "room-1",
			StartTime:   nextMonday,
			EndTime:     nextMonday.Add(2 * time.Hour),
			Status:      models.ScheduleStatusScheduled,
		},
	}}
	svc := NewTimetableService(
		&reservationSourceStub{},
		schedules,
		&classroomSourceStub{},
		&teacherSourceStub{},
		&studentSourceStub{},
		nil,
		semesterStart,
		time.Minute,
		zap.NewNop(),
		nil,
	)

	timetable, err := svc.GetWeekly(context.Background(), "student-1", 2)
	require.NoError(t, err)

	monday3 := timetable.Schedule["Monday"]
	require.Len(t, monday3, 1)
	assert.Equal(t, "sched-1", monday3[0].RefID)
	for _, items := range timetable.Schedule {
		for _, item := range items {
			assert.NotEqual(t, "sched-next", item.RefID)
		}
	}
}

func TestTimetableGetWeeklyCacheHit(t *testing.T) {
	store := newTimetableStoreStub()
	store.stored["timetable:student-1:2"] = &models.WeeklyTimetable{
		Week:      2,
		StartDate: "2025-03-03",
		EndDate:   "2025-03-09",
		Schedule:  map[string][]models.TimetableItem{},
	}
	reservations := &reservationSourceStub{}
	svc := newTimetableService(reservations, &scheduleSourceStub{}, store)

	timetable, err := svc.GetWeekly(context.Background(), "student-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, timetable.Week)
	assert.Zero(t, reservations.calls)
	assert.Empty(t, store.setKeys)
}

func TestTimetableGetWeeklyValidation(t *testing.T) {
	svc := newTimetableService(&reservationSourceStub{}, &scheduleSourceStub{}, nil)

	_, err := svc.GetWeekly(context.Background(), "", 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.GetWeekly(context.Background(), "student-1", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableGetWeeklyUnknownStudent(t *testing.T) {
	svc := NewTimetableService(
		&reservationSourceStub{},
		&scheduleSourceStub{},
		&classroomSourceStub{},
		&teacherSourceStub{},
		&studentSourceStub{err: sql.ErrNoRows},
		nil,
		semesterStart,
		time.Minute,
		zap.NewNop(),
		nil,
	)

	_, err := svc.GetWeekly(context.Background(), "student-404", 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
