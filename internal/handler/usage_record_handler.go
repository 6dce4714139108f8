package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reservation-api/internal/models"
	"github.com/campuskit/reservation-api/internal/service"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
	"github.com/campuskit/reservation-api/pkg/response"
)

type usageRecordService interface {
	List(ctx context.Context, filter models.UsageRecordFilter) ([]models.UsageRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.UsageRecord, error)
	Create(ctx context.Context, req service.CreateUsageRecordRequest) (*models.UsageRecord, error)
	Update(ctx context.Context, id string, req service.UpdateUsageRecordRequest) (*models.UsageRecord, error)
	Delete(ctx context.Context, id string) error
}

// UsageRecordHandler exposes the generic usage ledger endpoints.
type UsageRecordHandler struct {
	service usageRecordService
}

// NewUsageRecordHandler builds a new handler.
func NewUsageRecordHandler(service usageRecordService) *UsageRecordHandler {
	return &UsageRecordHandler{service: service}
}

// List godoc
// @Summary List usage records
// @Tags UsageRecords
// @Produce json
// @Param classroomId query string false "Classroom ID filter"
// @Param type query string false "Usage type filter"
// @Param status query string false "Status filter"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /usage-records [get]
func (h *UsageRecordHandler) List(c *gin.Context) {
	filter := models.UsageRecordFilter{
		ClassroomID: c.Query("classroomId"),
		Type:        c.Query("type"),
		Status:      c.Query("status"),
		Date:        queryDate(c, "date"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 20),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get a usage record
// @Tags UsageRecords
// @Produce json
// @Param id path string true "Usage record ID"
// @Success 200 {object} response.Envelope
// @Router /usage-records/{id} [get]
func (h *UsageRecordHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Record classroom usage for a slot
// @Tags UsageRecords
// @Accept json
// @Produce json
// @Param payload body service.CreateUsageRecordRequest true "Usage record payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /usage-records [post]
func (h *UsageRecordHandler) Create(c *gin.Context) {
	var req service.CreateUsageRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid usage record payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update a usage record
// @Tags UsageRecords
// @Accept json
// @Produce json
// @Param id path string true "Usage record ID"
// @Param payload body service.UpdateUsageRecordRequest true "Partial usage record payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /usage-records/{id} [put]
func (h *UsageRecordHandler) Update(c *gin.Context) {
	var req service.UpdateUsageRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid usage record payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a usage record
// @Tags UsageRecords
// @Param id path string true "Usage record ID"
// @Success 204
// @Router /usage-records/{id} [delete]
func (h *UsageRecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
