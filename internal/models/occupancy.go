package models

import "fmt"

// Ledger sources. Each source table owns its own conflict rule:
// reservations and usage records compare named slots for equality,
// schedules and courses compare wall-clock intervals.
const (
	SourceReservation = "reservation"
	SourceCourse      = "course"
	SourceSchedule    = "schedule"
	SourceUsageRecord = "usage_record"
)

// BookingConflictError reports that a candidate booking collides with
// an existing active occupancy row.
type BookingConflictError struct {
	Source      string `json:"source"`
	ClassroomID string `json:"classroom_id"`
	ExistingID  string `json:"existing_id,omitempty"`
}

// Error implements the error interface.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("classroom %s already booked (%s %s)", e.ClassroomID, e.Source, e.ExistingID)
}

// MissingReferenceError reports that a referenced entity (classroom,
// student, teacher) does not exist.
type MissingReferenceError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// Error implements the error interface.
func (e *MissingReferenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s does not exist", e.Entity, e.ID)
}
