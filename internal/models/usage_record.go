package models

import "time"

// Usage record statuses.
const (
	UsageStatusScheduled = "scheduled"
	UsageStatusActive    = "active"
	UsageStatusCancelled = "cancelled"
	UsageStatusRejected  = "rejected"
)

// UsageRecord is a generic occupancy entry: classroom X is in use on
// a date during a named slot for reason `Type` (course, activity,
// maintenance, ...).
type UsageRecord struct {
	ID           string    `db:"id" json:"id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	Date         time.Time `db:"date" json:"date"`
	TimeSlot     string    `db:"time_slot" json:"time_slot"`
	Type         string    `db:"type" json:"type"`
	EventID      *string   `db:"event_id" json:"event_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Participants int       `db:"participants" json:"participants"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UsageRecordFilter describes query params for listing usage records.
type UsageRecordFilter struct {
	ClassroomID string
	Type        string
	Status      string
	Date        *time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// UsageRecordPatch holds a partial update; nil fields keep the stored value.
type UsageRecordPatch struct {
	ClassroomID  *string
	Date         *time.Time
	TimeSlot     *string
	Type         *string
	EventID      *string
	Status       *string
	TeacherID    *string
	Participants *int
}
