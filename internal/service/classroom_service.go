package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	FindAvailable(ctx context.Context, filter models.ClassroomFilter, window models.Interval) ([]models.Classroom, error)
}

// ClassroomService serves the classroom reference data and the
// free-room search. Single-room lookups sit behind a small in-process
// cache because classrooms change rarely.
type ClassroomService struct {
	repo   classroomRepository
	local  *gocache.Cache
	logger *zap.Logger
}

// NewClassroomService instantiates ClassroomService.
func NewClassroomService(repo classroomRepository, cacheTTL time.Duration, logger *zap.Logger) *ClassroomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &ClassroomService{
		repo:   repo,
		local:  gocache.New(cacheTTL, 2*cacheTTL),
		logger: logger,
	}
}

// List returns classrooms. When the filter carries both a date and a
// time slot it switches to the free-room search across the occupancy
// ledgers; otherwise it is a plain paginated listing.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	if filter.Date != nil || filter.TimeSlot != "" {
		if filter.Date == nil || filter.TimeSlot == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "free-room search requires both date and time_slot")
		}
		if !models.IsValidSlot(filter.TimeSlot) {
			return nil, nil, invalidSlotError(filter.TimeSlot)
		}
		window, _ := models.SlotInterval(filter.TimeSlot, *filter.Date)
		classrooms, err := s.repo.FindAvailable(ctx, filter, window)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search available classrooms")
		}
		return classrooms, nil, nil
	}

	classrooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
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
	return classrooms, pagination, nil
}

// Get loads a single classroom, preferring the local cache.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	cacheKey := fmt.Sprintf("classroom:%s", id)
	if cached, ok := s.local.Get(cacheKey); ok {
		if classroom, ok := cached.(*models.Classroom); ok {
			return classroom, nil
		}
	}

	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	s.local.SetDefault(cacheKey, classroom)
	return classroom, nil
}
