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

type reservationService interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	Create(ctx context.Context, req service.CreateReservationRequest) (*models.Reservation, error)
	Update(ctx context.Context, id string, req service.UpdateReservationRequest) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// ReservationHandler exposes the reservation booking endpoints.
type ReservationHandler struct {
	service reservationService
}

// NewReservationHandler builds a new handler.
func NewReservationHandler(service reservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// List godoc
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Param studentId query string false "Student ID filter"
// @Param classroomId query string false "Classroom ID filter"
// @Param status query string false "Status filter"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	filter := models.ReservationFilter{
		StudentID:   c.Query("studentId"),
		ClassroomID: c.Query("classroomId"),
		Status:      c.Query("status"),
		Date:        queryDate(c, "date"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 20),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	reservations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservations, pagination)
}

// Get godoc
// @Summary Get a reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	reservation, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Create godoc
// @Summary Book a classroom slot
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body service.CreateReservationRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation payload"))
		return
	}
	reservation, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// Update godoc
// @Summary Update a reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param payload body service.UpdateReservationRequest true "Partial reservation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reservations/{id} [put]
func (h *ReservationHandler) Update(c *gin.Context) {
	var req service.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation payload"))
		return
	}
	reservation, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Delete godoc
// @Summary Delete a reservation
// @Tags Reservations
// @Param id path string true "Reservation ID"
// @Success 204
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
