package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type usageRecordRepoStub struct {
	created   *models.UsageRecord
	updated   *models.UsageRecord
	createErr error
	updateErr error
	deleteErr error
}

func (s *usageRecordRepoStub) List(ctx context.Context, filter models.UsageRecordFilter) ([]models.UsageRecord, int, error) {
	return nil, 0, nil
}

func (s *usageRecordRepoStub) FindByID(ctx context.Context, id string) (*models.UsageRecord, error) {
	return nil, sql.ErrNoRows
}

func (s *usageRecordRepoStub) Create(ctx context.Context, record *models.UsageRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	record.ID = "usage-1"
	s.created = record
	return nil
}

func (s *usageRecordRepoStub) Update(ctx context.Context, id string, patch models.UsageRecordPatch) (*models.UsageRecord, error) {
	return s.updated, s.updateErr
}

func (s *usageRecordRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

func TestUsageRecordServiceCreate(t *testing.T) {
	repo := &usageRecordRepoStub{}
	svc := NewUsageRecordService(repo, nil, zap.NewNop(), nil)

	record, err := svc.Create(context.Background(), CreateUsageRecordRequest{
		ClassroomID: "room-1",
		Date:        "2025-03-03",
		TimeSlot:    "5-6",
		Type:        "maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, "usage-1", record.ID)
	assert.Equal(t, models.UsageStatusScheduled, record.Status)
	assert.Equal(t, 1, record.Participants)
}

func TestUsageRecordServiceCreateInvalidSlot(t *testing.T) {
	svc := NewUsageRecordService(&usageRecordRepoStub{}, nil, zap.NewNop(), nil)

	_, err := svc.Create(context.Background(), CreateUsageRecordRequest{
		ClassroomID: "room-1",
		Date:        "2025-03-03",
		TimeSlot:    "6-7",
		Type:        "maintenance",
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidSlot.Code, appErr.Code)
	assert.Equal(t, models.ValidTimeSlots(), appErr.Details["valid_time_slots"])
}

func TestUsageRecordServiceCreateConflict(t *testing.T) {
	repo := &usageRecordRepoStub{
		createErr: &models.BookingConflictError{Source: models.SourceUsageRecord, ClassroomID: "room-1"},
	}
	svc := NewUsageRecordService(repo, nil, zap.NewNop(), nil)

	_, err := svc.Create(context.Background(), CreateUsageRecordRequest{
		ClassroomID: "room-1",
		Date:        "2025-03-03",
		TimeSlot:    "5-6",
		Type:        "event",
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestUsageRecordServiceUpdateNotFound(t *testing.T) {
	repo := &usageRecordRepoStub{updateErr: sql.ErrNoRows}
	svc := NewUsageRecordService(repo, nil, zap.NewNop(), nil)

	_, err := svc.Update(context.Background(), "usage-404", UpdateUsageRecordRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
