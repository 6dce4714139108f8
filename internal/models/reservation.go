package models

import "time"

// Reservation statuses. Cancelled and rejected rows are inert: they
// never block another booking but stay in the table for audit.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusApproved  = "approved"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusRejected  = "rejected"
)

// Reservation is an ad-hoc classroom booking for a student activity.
type Reservation struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	ActivityName string    `db:"activity_name" json:"activity_name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Date         time.Time `db:"date" json:"date"`
	TimeSlot     string    `db:"time_slot" json:"time_slot"`
	Status       string    `db:"status" json:"status"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Participants int       `db:"participants" json:"participants"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReservationFilter describes query params for listing reservations.
type ReservationFilter struct {
	StudentID   string
	ClassroomID string
	Status      string
	Date        *time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// ReservationPatch holds a partial update; nil fields keep the stored
// value (a present-but-null field is not distinguished from an absent
// one).
type ReservationPatch struct {
	StudentID    *string
	ClassroomID  *string
	ActivityName *string
	Description  *string
	Date         *time.Time
	TimeSlot     *string
	Status       *string
	TeacherID    *string
	Participants *int
}
