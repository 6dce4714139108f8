package service

import (
	"context"
	"errors"
	"time"

	"github.com/campuskit/reservation-api/internal/models"
	appErrors "github.com/campuskit/reservation-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// timestampLayouts are accepted for schedule/course start and end times.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// timetableCache is the slice of CacheRepository the booking services
// need to drop stale weekly views after a write.
type timetableCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// invalidSlotError builds the client-facing invalid-slot failure,
// carrying the valid vocabulary so the client can self-correct.
func invalidSlotError(slot string) error {
	details := map[string]interface{}{
		"time_slot":        slot,
		"valid_time_slots": models.ValidTimeSlots(),
	}
	return appErrors.WithDetails(appErrors.ErrInvalidSlot, details)
}

// mapBookingError converts repository-level booking failures into
// HTTP-aware errors: missing references are 400, slot collisions 409,
// anything else 500.
func mapBookingError(err error, metrics *MetricsService, fallback string) error {
	var missing *models.MissingReferenceError
	if errors.As(err, &missing) {
		return appErrors.Wrap(err, appErrors.ErrBadReference.Code, appErrors.ErrBadReference.Status, missing.Error())
	}
	var conflict *models.BookingConflictError
	if errors.As(err, &conflict) {
		metrics.IncBookingConflict(conflict.Source)
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "time slot already reserved")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
