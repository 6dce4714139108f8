package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, id string, patch models.SchedulePatch) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// CreateScheduleRequest describes the payload for a timetable entry.
type CreateScheduleRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	CourseName  string  `json:"course_name" validate:"required"`
	ClassroomID string  `json:"classroom_id" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Status      string  `json:"status" validate:"omitempty,oneof=scheduled cancelled"`
	TeacherID   *string `json:"teacher_id"`
	TimeSlot    *string `json:"time_slot"`
}

// UpdateScheduleRequest is a partial update.
type UpdateScheduleRequest struct {
	StudentID   *string `json:"student_id"`
	CourseName  *string `json:"course_name"`
	ClassroomID *string `json:"classroom_id"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Status      *string `json:"status" validate:"omitempty,oneof=scheduled cancelled"`
	TeacherID   *string `json:"teacher_id"`
	TimeSlot    *string `json:"time_slot"`
}

// ScheduleService coordinates per-student timetable entries.
type ScheduleService struct {
	repo      scheduleRepository
	cache     timetableCache
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, cache timetableCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, cache: cache, validator: validate, logger: logger, metrics: metrics}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// Get loads a single schedule.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Create inserts a timetable entry after interval conflict detection.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.TimeSlot != nil && !models.IsValidSlot(*req.TimeSlot) {
		return nil, invalidSlotError(*req.TimeSlot)
	}
	start, err := parseTimestamp(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
	}
	end, err := parseTimestamp(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	status := req.Status
	if status == "" {
		status = models.ScheduleStatusScheduled
	}

	schedule := models.Schedule{
		StudentID:   req.StudentID,
		CourseName:  req.CourseName,
		ClassroomID: req.ClassroomID,
		StartTime:   start,
		EndTime:     end,
		Status:      status,
		TeacherID:   req.TeacherID,
		TimeSlot:    req.TimeSlot,
	}

	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, mapBookingError(err, s.metrics, "failed to create schedule")
	}

	s.invalidateTimetable(ctx, schedule.StudentID)
	return &schedule, nil
}

// Update applies a partial update, re-running the overlap check only
// when classroom or interval changed.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.TimeSlot != nil && !models.IsValidSlot(*req.TimeSlot) {
		return nil, invalidSlotError(*req.TimeSlot)
	}

	patch := models.SchedulePatch{
		StudentID:   req.StudentID,
		CourseName:  req.CourseName,
		ClassroomID: req.ClassroomID,
		Status:      req.Status,
		TeacherID:   req.TeacherID,
		TimeSlot:    req.TimeSlot,
	}
	if req.StartTime != nil {
		start, err := parseTimestamp(*req.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
		}
		patch.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseTimestamp(*req.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
		}
		patch.EndTime = &end
	}
	if patch.StartTime != nil && patch.EndTime != nil && !patch.StartTime.Before(*patch.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, mapBookingError(err, s.metrics, "failed to update schedule")
	}

	s.invalidateTimetable(ctx, updated.StudentID)
	return updated, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.invalidateTimetable(ctx, existing.StudentID)
	return nil
}

func (s *ScheduleService) invalidateTimetable(ctx context.Context, studentID string) {
	if s.cache == nil || studentID == "" {
		return
	}
	pattern := fmt.Sprintf("timetable:%s:*", studentID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
