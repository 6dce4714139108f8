package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/reservation-api/internal/models"
	"github.com/campuskit/reservation-api/internal/service"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

type reservationServiceMock struct {
	reservations []models.Reservation
	pagination   *models.Pagination
	createResp   *models.Reservation
	createErr    error
	deleteErr    error
	lastFilter   models.ReservationFilter
	lastCreate   service.CreateReservationRequest
	createCalled bool
}

func (m *reservationServiceMock) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, *models.Pagination, error) {
	m.lastFilter = filter
	return m.reservations, m.pagination, nil
}

func (m *reservationServiceMock) Get(ctx context.Context, id string) (*models.Reservation, error) {
	if len(m.reservations) > 0 {
		return &m.reservations[0], nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
}

func (m *reservationServiceMock) Create(ctx context.Context, req service.CreateReservationRequest) (*models.Reservation, error) {
	m.createCalled = true
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *reservationServiceMock) Update(ctx context.Context, id string, req service.UpdateReservationRequest) (*models.Reservation, error) {
	return nil, nil
}

func (m *reservationServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func TestReservationHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reservationServiceMock{
		createResp: &models.Reservation{ID: "res-1", Status: "pending"},
	}
	handler := NewReservationHandler(mockSvc)

	body := `{"student_id":"student-1","classroom_id":"room-1","activity_name":"debate club","date":"2025-03-03","time_slot":"3-4"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, "3-4", mockSvc.lastCreate.TimeSlot)
}

func TestReservationHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reservationServiceMock{}
	handler := NewReservationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.createCalled)
}

func TestReservationHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reservationServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, ""),
	}
	handler := NewReservationHandler(mockSvc)

	body := `{"student_id":"student-1","classroom_id":"room-1","activity_name":"debate club","date":"2025-03-03","time_slot":"3-4"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "TIME_CONFLICT", envelope.Error.Code)
}

func TestReservationHandlerListPassesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reservationServiceMock{
		reservations: []models.Reservation{{ID: "res-1"}},
		pagination:   &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1},
	}
	handler := NewReservationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reservations?studentId=student-1&status=approved&date=2025-03-03&page=2", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-1", mockSvc.lastFilter.StudentID)
	assert.Equal(t, "approved", mockSvc.lastFilter.Status)
	require.NotNil(t, mockSvc.lastFilter.Date)
	assert.Equal(t, 3, int(mockSvc.lastFilter.Date.Month()))
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
}

func TestReservationHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReservationHandler(&reservationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/reservations/res-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}

	handler.Delete(c)
	// a bare status is only flushed by the engine; force it here since
	// the handler runs outside a routed request
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}
