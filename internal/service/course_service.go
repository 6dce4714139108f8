package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id string, patch models.CoursePatch) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest describes the payload for a curricular class.
// Courses always occupy their classroom, so there is no status field.
type CreateCourseRequest struct {
	Name         string  `json:"name" validate:"required"`
	TeacherID    string  `json:"teacher_id" validate:"required"`
	ClassroomID  string  `json:"classroom_id" validate:"required"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	TimeSlot     *string `json:"time_slot"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// UpdateCourseRequest is a partial update.
type UpdateCourseRequest struct {
	Name         *string `json:"name"`
	TeacherID    *string `json:"teacher_id"`
	ClassroomID  *string `json:"classroom_id"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	TimeSlot     *string `json:"time_slot"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// CourseService coordinates curricular classroom occupancy.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewCourseService instantiates CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger, metrics: metrics}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Get loads a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create inserts a course after interval conflict detection against
// other courses in the same classroom.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
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

	participants := 1
	if req.Participants != nil {
		participants = *req.Participants
	}

	course := models.Course{
		Name:         req.Name,
		TeacherID:    req.TeacherID,
		ClassroomID:  req.ClassroomID,
		StartTime:    start,
		EndTime:      end,
		TimeSlot:     req.TimeSlot,
		Participants: participants,
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		return nil, mapBookingError(err, s.metrics, "failed to create course")
	}
	return &course, nil
}

// Update applies a partial update.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.TimeSlot != nil && !models.IsValidSlot(*req.TimeSlot) {
		return nil, invalidSlotError(*req.TimeSlot)
	}

	patch := models.CoursePatch{
		Name:         req.Name,
		TeacherID:    req.TeacherID,
		ClassroomID:  req.ClassroomID,
		TimeSlot:     req.TimeSlot,
		Participants: req.Participants,
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
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, mapBookingError(err, s.metrics, "failed to update course")
	}
	return updated, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
