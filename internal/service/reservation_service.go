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

type reservationRepository interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	Create(ctx context.Context, reservation *models.Reservation) error
	Update(ctx context.Context, id string, patch models.ReservationPatch) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// CreateReservationRequest describes the payload for booking a classroom.
type CreateReservationRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	ClassroomID  string  `json:"classroom_id" validate:"required"`
	ActivityName string  `json:"activity_name" validate:"required"`
	Description  *string `json:"description"`
	Date         string  `json:"date" validate:"required"`
	TimeSlot     string  `json:"time_slot" validate:"required"`
	Status       string  `json:"status" validate:"omitempty,oneof=pending approved cancelled rejected"`
	TeacherID    *string `json:"teacher_id"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// UpdateReservationRequest is a partial update: absent fields keep
// their stored values.
type UpdateReservationRequest struct {
	StudentID    *string `json:"student_id"`
	ClassroomID  *string `json:"classroom_id"`
	ActivityName *string `json:"activity_name"`
	Description  *string `json:"description"`
	Date         *string `json:"date"`
	TimeSlot     *string `json:"time_slot"`
	Status       *string `json:"status" validate:"omitempty,oneof=pending approved cancelled rejected"`
	TeacherID    *string `json:"teacher_id"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// ReservationService coordinates ad-hoc classroom bookings.
type ReservationService struct {
	repo      reservationRepository
	cache     timetableCache
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewReservationService instantiates ReservationService.
func NewReservationService(repo reservationRepository, cache timetableCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{repo: repo, cache: cache, validator: validate, logger: logger, metrics: metrics}
}

// List returns reservations with pagination metadata.
func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, *models.Pagination, error) {
	reservations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
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
	return reservations, pagination, nil
}

// Get loads a single reservation.
func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	return reservation, nil
}

// Create books a classroom slot for a student activity.
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	if !models.IsValidSlot(req.TimeSlot) {
		return nil, invalidSlotError(req.TimeSlot)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date, expected YYYY-MM-DD")
	}

	status := req.Status
	if status == "" {
		status = models.ReservationStatusPending
	}
	participants := 1
	if req.Participants != nil {
		participants = *req.Participants
	}

	reservation := models.Reservation{
		StudentID:    req.StudentID,
		ClassroomID:  req.ClassroomID,
		ActivityName: req.ActivityName,
		Description:  req.Description,
		Date:         date,
		TimeSlot:     req.TimeSlot,
		Status:       status,
		TeacherID:    req.TeacherID,
		Participants: participants,
	}

	if err := s.repo.Create(ctx, &reservation); err != nil {
		return nil, mapBookingError(err, s.metrics, "failed to create reservation")
	}

	s.invalidateTimetable(ctx, reservation.StudentID)
	return &reservation, nil
}

// Update applies a partial update, re-running the conflict check only
// when classroom, date or slot changed.
func (s *ReservationService) Update(ctx context.Context, id string, req UpdateReservationRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	if req.TimeSlot != nil && !models.IsValidSlot(*req.TimeSlot) {
		return nil, invalidSlotError(*req.TimeSlot)
	}

	patch := models.ReservationPatch{
		StudentID:    req.StudentID,
		ClassroomID:  req.ClassroomID,
		ActivityName: req.ActivityName,
		Description:  req.Description,
		TimeSlot:     req.TimeSlot,
		Status:       req.Status,
		TeacherID:    req.TeacherID,
		Participants: req.Participants,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date, expected YYYY-MM-DD")
		}
		patch.Date = &date
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, mapBookingError(err, s.metrics, "failed to update reservation")
	}

	s.invalidateTimetable(ctx, updated.StudentID)
	return updated, nil
}

// Delete removes a reservation entirely.
func (s *ReservationService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reservation")
	}

	s.invalidateTimetable(ctx, existing.StudentID)
	return nil
}

func (s *ReservationService) invalidateTimetable(ctx context.Context, studentID string) {
	if s.cache == nil || studentID == "" {
		return
	}
	pattern := fmt.Sprintf("timetable:%s:*", studentID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
