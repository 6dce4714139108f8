package models

import "time"

// Course is a class session occupying a classroom for a wall-clock
// interval. Courses carry no lifecycle status: every row is active for
// conflict purposes.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	TimeSlot     *string   `db:"time_slot" json:"time_slot,omitempty"`
	Participants int       `db:"participants" json:"participants"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the course's occupancy window.
func (c Course) Interval() Interval {
	return Interval{Start: c.StartTime, End: c.EndTime}
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	TeacherID   string
	ClassroomID string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// CoursePatch holds a partial update; nil fields keep the stored value.
type CoursePatch struct {
	Name         *string
	TeacherID    *string
	ClassroomID  *string
	StartTime    *time.Time
	EndTime      *time.Time
	TimeSlot     *string
	Participants *int
}
