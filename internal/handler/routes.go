package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Reservations *ReservationHandler
	UsageRecords *UsageRecordHandler
	Schedules    *ScheduleHandler
	Courses      *CourseHandler
	Classrooms   *ClassroomHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the API under the configured prefix. The
// writeLimiter, when non-nil, throttles the booking (write) endpoints
// only; reads stay unthrottled.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, writeLimiter gin.HandlerFunc) {
	api := r.Group(prefix)

	reads := api.Group("")
	writes := api.Group("")
	if writeLimiter != nil {
		writes.Use(writeLimiter)
	}

	if h.Reservations != nil {
		reads.GET("/reservations", h.Reservations.List)
		reads.GET("/reservations/:id", h.Reservations.Get)
		writes.POST("/reservations", h.Reservations.Create)
		writes.PUT("/reservations/:id", h.Reservations.Update)
		writes.DELETE("/reservations/:id", h.Reservations.Delete)
	}

	if h.UsageRecords != nil {
		reads.GET("/usage-records", h.UsageRecords.List)
		reads.GET("/usage-records/:id", h.UsageRecords.Get)
		writes.POST("/usage-records", h.UsageRecords.Create)
		writes.PUT("/usage-records/:id", h.UsageRecords.Update)
		writes.DELETE("/usage-records/:id", h.UsageRecords.Delete)
	}

	if h.Schedules != nil {
		reads.GET("/schedules", h.Schedules.List)
		reads.GET("/schedules/:id", h.Schedules.Get)
		writes.POST("/schedules", h.Schedules.Create)
		writes.PUT("/schedules/:id", h.Schedules.Update)
		writes.DELETE("/schedules/:id", h.Schedules.Delete)
	}

	if h.Courses != nil {
		reads.GET("/courses", h.Courses.List)
		reads.GET("/courses/:id", h.Courses.Get)
		writes.POST("/courses", h.Courses.Create)
		writes.PUT("/courses/:id", h.Courses.Update)
		writes.DELETE("/courses/:id", h.Courses.Delete)
	}

	if h.Classrooms != nil {
		reads.GET("/classrooms", h.Classrooms.List)
		reads.GET("/classrooms/:id", h.Classrooms.Get)
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
}
