package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reservation-api/internal/models"
	"github.com/campuskit/reservation-api/internal/service"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
	"github.com/campuskit/reservation-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error)
	Update(ctx context.Context, id string, req service.UpdateScheduleRequest) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

type timetableService interface {
	GetWeekly(ctx context.Context, studentID string, week int) (*models.WeeklyTimetable, error)
}

// ScheduleHandler exposes the timetable-entry endpoints. Its list
// endpoint doubles as the weekly timetable view when both studentId
// and week are supplied.
type ScheduleHandler struct {
	service   scheduleService
	timetable timetableService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService, timetable timetableService) *ScheduleHandler {
	return &ScheduleHandler{service: service, timetable: timetable}
}

// List godoc
// @Summary List schedules or fetch a student's weekly timetable
// @Description With both studentId and week the response is the aggregated seven-day view; with neither it is a paginated listing. Supplying only one of the two is an error.
// @Tags Schedules
// @Produce json
// @Param studentId query string false "Student ID (weekly view)"
// @Param week query int false "Semester week number, 1-based (weekly view)"
// @Param classroomId query string false "Classroom ID filter (listing)"
// @Param status query string false "Status filter (listing)"
// @Param page query int false "Page number (listing)"
// @Param pageSize query int false "Page size (listing)"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	studentID := c.Query("studentId")
	rawWeek := c.Query("week")

	if studentID != "" && rawWeek != "" {
		week, err := strconv.Atoi(rawWeek)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
			return
		}
		timetable, err := h.timetable.GetWeekly(c.Request.Context(), studentID, week)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, timetable, nil)
		return
	}

	if studentID != "" || rawWeek != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and week must be supplied together"))
		return
	}

	filter := models.ScheduleFilter{
		ClassroomID: c.Query("classroomId"),
		Status:      c.Query("status"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 20),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get a schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Partial schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a schedule entry
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
