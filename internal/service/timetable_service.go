package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type timetableReservationSource interface {
	ListApprovedForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Reservation, error)
}

type timetableScheduleSource interface {
	ListForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Schedule, error)
}

type classroomBatchSource interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Classroom, error)
}

type teacherBatchSource interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type studentSource interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type timetableStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableService assembles the seven-day view of a student's week
// from course schedules and approved reservations.
type TimetableService struct {
	reservations  timetableReservationSource
	schedules     timetableScheduleSource
	classrooms    classroomBatchSource
	teachers      teacherBatchSource
	students      studentSource
	cache         timetableStore
	semesterStart time.Time
	cacheTTL      time.Duration
	logger        *zap.Logger
	metrics       *MetricsService
}

// NewTimetableService instantiates TimetableService. cache may be nil
// when Redis is not configured.
func NewTimetableService(
	reservations timetableReservationSource,
	schedules timetableScheduleSource,
	classrooms classroomBatchSource,
	teachers teacherBatchSource,
	students studentSource,
	cache timetableStore,
	semesterStart time.Time,
	cacheTTL time.Duration,
	logger *zap.Logger,
	metrics *MetricsService,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		reservations:  reservations,
		schedules:     schedules,
		classrooms:    classrooms,
		teachers:      teachers,
		students:      students,
		cache:         cache,
		semesterStart: semesterStart,
		cacheTTL:      cacheTTL,
		logger:        logger,
		metrics:       metrics,
	}
}

// WeekRange resolves a 1-based semester week number to its Monday and
// Sunday. Week numbers outside the semester simply land outside it.
func (s *TimetableService) WeekRange(week int) (time.Time, time.Time) {
	start := s.semesterStart.AddDate(0, 0, (week-1)*7)
	end := start.AddDate(0, 0, 6)
	return start, end
}

// GetWeekly returns one student's timetable for a semester week,
// served from Redis when a fresh copy exists.
func (s *TimetableService) GetWeekly(ctx context.Context, studentID string, week int) (*models.WeeklyTimetable, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if week < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week must be a positive integer")
	}

	cacheKey := fmt.Sprintf("timetable:%s:%d", studentID, week)
	if s.cache != nil {
		var cached models.WeeklyTimetable
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordTimetableCache(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		s.metrics.RecordTimetableCache(false)
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	start, end := s.WeekRange(week)

	schedules, err := s.schedules.ListForStudentRange(ctx, studentID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	reservations, err := s.reservations.ListApprovedForStudentRange(ctx, studentID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservations")
	}

	classroomNames, teacherNames, err := s.lookupNames(ctx, schedules, reservations)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve timetable references")
	}

	timetable := &models.WeeklyTimetable{
		Week:      week,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		Schedule:  make(map[string][]models.TimetableItem, len(models.DayNames)),
	}
	for _, day := range models.DayNames {
		timetable.Schedule[day] = []models.TimetableItem{}
	}

	for _, schedule := range schedules {
		if schedule.Status == models.ScheduleStatusCancelled {
			continue
		}
		item := models.TimetableItem{
			ItemType:   models.TimetableItemCourse,
			RefID:      schedule.ID,
			Title:      schedule.CourseName,
			LocationID: schedule.ClassroomID,
			Location:   classroomNames[schedule.ClassroomID],
			StartTime:  schedule.StartTime,
			EndTime:    schedule.EndTime,
			Status:     schedule.Status,
		}
		if schedule.TeacherID != nil {
			item.TeacherName = teacherNames[*schedule.TeacherID]
		}
		s.bucket(timetable, item)
	}

	for _, reservation := range reservations {
		window, ok := models.SlotInterval(reservation.TimeSlot, reservation.Date)
		if !ok {
			s.logger.Warn("skipping reservation with unknown time slot",
				zap.String("reservation_id", reservation.ID),
				zap.String("time_slot", reservation.TimeSlot))
			continue
		}
		item := models.TimetableItem{
			ItemType:    models.TimetableItemActivity,
			RefID:       reservation.ID,
			Title:       reservation.ActivityName,
			LocationID:  reservation.ClassroomID,
			Location:    classroomNames[reservation.ClassroomID],
			StartTime:   window.Start,
			EndTime:     window.End,
			Status:      reservation.Status,
			Description: reservation.Description,
		}
		if reservation.TeacherID != nil {
			item.TeacherName = teacherNames[*reservation.TeacherID]
		}
		s.bucket(timetable, item)
	}

	for day := range timetable.Schedule {
		items := timetable.Schedule[day]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].StartTime.Before(items[j].StartTime)
		})
		timetable.Schedule[day] = items
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, timetable, s.cacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return timetable, nil
}

func (s *TimetableService) bucket(timetable *models.WeeklyTimetable, item models.TimetableItem) {
	day := models.DayNames[item.StartTime.Weekday()]
	timetable.Schedule[day] = append(timetable.Schedule[day], item)
}

// lookupNames batch-resolves classroom locations and teacher names for
// the collected week.
func (s *TimetableService) lookupNames(ctx context.Context, schedules []models.Schedule, reservations []models.Reservation) (map[string]string, map[string]string, error) {
	classroomSet := map[string]struct{}{}
	teacherSet := map[string]struct{}{}
	for _, schedule := range schedules {
		classroomSet[schedule.ClassroomID] = struct{}{}
		if schedule.TeacherID != nil {
			teacherSet[*schedule.TeacherID] = struct{}{}
		}
	}
	for _, reservation := range reservations {
		classroomSet[reservation.ClassroomID] = struct{}{}
		if reservation.TeacherID != nil {
			teacherSet[*reservation.TeacherID] = struct{}{}
		}
	}

	classroomNames := make(map[string]string, len(classroomSet))
	if len(classroomSet) > 0 {
		ids := make([]string, 0, len(classroomSet))
		for id := range classroomSet {
			ids = append(ids, id)
		}
		classrooms, err := s.classrooms.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for _, classroom := range classrooms {
			classroomNames[classroom.ID] = classroom.Code
		}
	}

	teacherNames := make(map[string]string, len(teacherSet))
	if len(teacherSet) > 0 {
		ids := make([]string, 0, len(teacherSet))
		for id := range teacherSet {
			ids = append(ids, id)
		}
		teachers, err := s.teachers.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for _, teacher := range teachers {
			teacherNames[teacher.ID] = teacher.FullName
		}
	}

	return classroomNames, teacherNames, nil
}
