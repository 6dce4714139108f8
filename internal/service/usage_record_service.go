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

type usageRecordRepository interface {
	List(ctx context.Context, filter models.UsageRecordFilter) ([]models.UsageRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.UsageRecord, error)
	Create(ctx context.Context, record *models.UsageRecord) error
	Update(ctx context.Context, id string, patch models.UsageRecordPatch) (*models.UsageRecord, error)
	Delete(ctx context.Context, id string) error
}

// CreateUsageRecordRequest describes the payload for a usage entry.
type CreateUsageRecordRequest struct {
	ClassroomID  string  `json:"classroom_id" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	TimeSlot     string  `json:"time_slot" validate:"required"`
	Type         string  `json:"type" validate:"required"`
	EventID      *string `json:"event_id"`
	Status       string  `json:"status" validate:"omitempty,oneof=scheduled active cancelled rejected"`
	TeacherID    *string `json:"teacher_id"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// UpdateUsageRecordRequest is a partial update.
type UpdateUsageRecordRequest struct {
	ClassroomID  *string `json:"classroom_id"`
	Date         *string `json:"date"`
	TimeSlot     *string `json:"time_slot"`
	Type         *string `json:"type"`
	EventID      *string `json:"event_id"`
	Status       *string `json:"status" validate:"omitempty,oneof=scheduled active cancelled rejected"`
	TeacherID    *string `json:"teacher_id"`
	Participants *int    `json:"participants" validate:"omitempty,min=1"`
}

// UsageRecordService coordinates the generic occupancy ledger.
type UsageRecordService struct {
	repo      usageRecordRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewUsageRecordService instantiates UsageRecordService.
func NewUsageRecordService(repo usageRecordRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *UsageRecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageRecordService{repo: repo, validator: validate, logger: logger, metrics: metrics}
}

// List returns usage records with pagination metadata.
func (s *UsageRecordService) List(ctx context.Context, filter models.UsageRecordFilter) ([]models.UsageRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list usage records")
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
	return records, pagination, nil
}

// Get loads a single usage record.
func (s *UsageRecordService) Get(ctx context.Context, id string) (*models.UsageRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usage record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load usage record")
	}
	return record, nil
}

// Create books a classroom slot in the usage ledger.
func (s *UsageRecordService) Create(ctx context.Context, req CreateUsageRecordRequest) (*models.UsageRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid usage record payload")
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
		status = models.UsageStatusScheduled
	}
	participants := 1
	if req.Participants != nil {
		participants = *req.Participants
	}

	record := models.UsageRecord{
		ClassroomID:  req.ClassroomID,
		Date:         date,
		TimeSlot:     req.TimeSlot,
		Type:         req.Type,
		EventID:      req.EventID,
		Status:       status,
		TeacherID:    req.TeacherID,
		Participants: participants,
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, mapBookingError(err, s.metrics, "failed to create usage record")
	}
	return &record, nil
}

// Update applies a partial update.
func (s *UsageRecordService) Update(ctx context.Context, id string, req UpdateUsageRecordRequest) (*models.UsageRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid usage record payload")
	}
	if req.TimeSlot != nil && !models.IsValidSlot(*req.TimeSlot) {
		return nil, invalidSlotError(*req.TimeSlot)
	}

	patch := models.UsageRecordPatch{
		ClassroomID:  req.ClassroomID,
		TimeSlot:     req.TimeSlot,
		Type:         req.Type,
		EventID:      req.EventID,
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
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usage record not found")
		}
		return nil, mapBookingError(err, s.metrics, "failed to update usage record")
	}
	return updated, nil
}

// Delete removes a usage record.
func (s *UsageRecordService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "usage record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete usage record")
	}
	return nil
}
