package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/reservation-api/internal/models"
)

// Conflict scans for the four occupancy ledgers. Reservations and
// usage records are slot-equality ledgers: a conflict is an active row
// with the same classroom, date and named slot. Schedules and courses
// are interval ledgers: a conflict is a row whose [start, end) window
// overlaps the candidate's. All scans exclude a given record id so an
// update never collides with itself.
//
// These helpers take an sqlx.ExtContext so the caller can run them
// inside the same transaction as the subsequent insert or update.

func countReservationSlotConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, date time.Time, timeSlot, excludeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reservations
WHERE classroom_id = $1 AND date = $2 AND time_slot = $3
  AND status NOT IN ('cancelled', 'rejected') AND id <> $4`
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, query, classroomID, date, timeSlot, excludeID); err != nil {
		return 0, fmt.Errorf("count reservation conflicts: %w", err)
	}
	return count, nil
}

func countUsageSlotConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, date time.Time, timeSlot, excludeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM usage_records
WHERE classroom_id = $1 AND date = $2 AND time_slot = $3
  AND status NOT IN ('cancelled', 'rejected') AND id <> $4`
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, query, classroomID, date, timeSlot, excludeID); err != nil {
		return 0, fmt.Errorf("count usage record conflicts: %w", err)
	}
	return count, nil
}

func countScheduleOverlaps(ctx context.Context, exec sqlx.ExtContext, classroomID string, window models.Interval, excludeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedules
WHERE classroom_id = $1 AND start_time < $3 AND end_time > $2
  AND status NOT IN ('cancelled', 'rejected') AND id <> $4`
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, query, classroomID, window.Start, window.End, excludeID); err != nil {
		return 0, fmt.Errorf("count schedule overlaps: %w", err)
	}
	return count, nil
}

func countCourseOverlaps(ctx context.Context, exec sqlx.ExtContext, classroomID string, window models.Interval, excludeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM courses
WHERE classroom_id = $1 AND start_time < $3 AND end_time > $2 AND id <> $4`
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, query, classroomID, window.Start, window.End, excludeID); err != nil {
		return 0, fmt.Errorf("count course overlaps: %w", err)
	}
	return count, nil
}

// slotRow is an active named-slot occupancy row fetched for Go-side
// interval normalization during cross-ledger checks.
type slotRow struct {
	ID       string    `db:"id"`
	Date     time.Time `db:"date"`
	TimeSlot string    `db:"time_slot"`
}

func activeSlotRows(ctx context.Context, exec sqlx.ExtContext, table, classroomID string, date time.Time) ([]slotRow, error) {
	query := fmt.Sprintf(`SELECT id, date, time_slot FROM %s
WHERE classroom_id = $1 AND date = $2 AND status NOT IN ('cancelled', 'rejected')`, table)
	var rows []slotRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, classroomID, date); err != nil {
		return nil, fmt.Errorf("list %s slots: %w", table, err)
	}
	return rows, nil
}

// crossLedgerConflict scans every ledger other than the candidate's
// own source for an active row overlapping the candidate window.
// Named-slot rows are normalized to wall-clock intervals via the slot
// table; rows with a slot outside the enumeration cannot be normalized
// and are skipped. The slot ledgers are keyed by calendar day, so a
// window spanning midnight is checked against each day it touches.
func crossLedgerConflict(ctx context.Context, exec sqlx.ExtContext, source, classroomID string, window models.Interval, excludeID string) (*models.BookingConflictError, error) {
	firstDay := time.Date(window.Start.Year(), window.Start.Month(), window.Start.Day(), 0, 0, 0, 0, window.Start.Location())

	for _, table := range []struct {
		name   string
		source string
	}{
		{name: "reservations", source: models.SourceReservation},
		{name: "usage_records", source: models.SourceUsageRecord},
	} {
		if table.source == source {
			continue
		}
		for day := firstDay; day.Before(window.End); day = day.AddDate(0, 0, 1) {
			rows, err := activeSlotRows(ctx, exec, table.name, classroomID, day)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.ID == excludeID {
					continue
				}
				existing, ok := models.SlotInterval(row.TimeSlot, row.Date)
				if !ok {
					continue
				}
				if existing.Overlaps(window) {
					return &models.BookingConflictError{Source: table.source, ClassroomID: classroomID, ExistingID: row.ID}, nil
				}
			}
		}
	}

	if source != models.SourceSchedule {
		count, err := countScheduleOverlaps(ctx, exec, classroomID, window, excludeID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return &models.BookingConflictError{Source: models.SourceSchedule, ClassroomID: classroomID}, nil
		}
	}

	if source != models.SourceCourse {
		count, err := countCourseOverlaps(ctx, exec, classroomID, window, excludeID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return &models.BookingConflictError{Source: models.SourceCourse, ClassroomID: classroomID}, nil
		}
	}

	return nil, nil
}

// referenceExists checks a foreign reference inside the booking
// transaction. Table names are compile-time constants, never input.
func referenceExists(ctx context.Context, exec sqlx.ExtContext, table, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, query, id); err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}
