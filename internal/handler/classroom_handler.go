package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reservation-api/internal/models"
	"github.com/campuskit/reservation-api/pkg/response"
)

type classroomService interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Classroom, error)
}

// ClassroomHandler exposes classroom reference endpoints including the
// free-room search.
type ClassroomHandler struct {
	service classroomService
}

// NewClassroomHandler builds a new handler.
func NewClassroomHandler(service classroomService) *ClassroomHandler {
	return &ClassroomHandler{service: service}
}

// List godoc
// @Summary List classrooms or search free rooms
// @Description With both date and timeSlot the listing becomes a free-room search across all occupancy ledgers.
// @Tags Classrooms
// @Produce json
// @Param collegeId query string false "College ID filter"
// @Param status query string false "Status filter"
// @Param date query string false "Date (YYYY-MM-DD, free-room search)"
// @Param timeSlot query string false "Named time slot (free-room search)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	filter := models.ClassroomFilter{
		CollegeID: c.Query("collegeId"),
		Status:    c.Query("status"),
		Date:      queryDate(c, "date"),
		TimeSlot:  c.Query("timeSlot"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	classrooms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, pagination)
}

// Get godoc
// @Summary Get a classroom
// @Tags Classrooms
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *ClassroomHandler) Get(c *gin.Context) {
	classroom, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}
