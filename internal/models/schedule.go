package models

import "time"

// Schedule statuses.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCancelled = "cancelled"
)

// Schedule is a per-student timetable entry bound to a classroom and a
// concrete wall-clock interval. TimeSlot, when present, is the named
// period label used for display only; conflict detection always works
// on the interval.
type Schedule struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CourseName  string    `db:"course_name" json:"course_name"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Status      string    `db:"status" json:"status"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	TimeSlot    *string   `db:"time_slot" json:"time_slot,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the schedule's occupancy window.
func (s Schedule) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	StudentID   string
	ClassroomID string
	Status      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// SchedulePatch holds a partial update; nil fields keep the stored value.
type SchedulePatch struct {
	StudentID   *string
	CourseName  *string
	ClassroomID *string
	StartTime   *time.Time
	EndTime     *time.Time
	Status      *string
	TeacherID   *string
	TimeSlot    *string
}
