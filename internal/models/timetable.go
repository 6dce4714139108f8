package models

import "time"

// Timetable item discriminators. Course items come from the schedule
// table, activity items from approved reservations.
const (
	TimetableItemCourse   = "course"
	TimetableItemActivity = "activity"
)

// DayNames maps time.Weekday (0=Sunday) to the bucket names used in
// the weekly timetable response.
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// TimetableItem is one commitment in a student's week, normalized from
// either source into a common title/location shape.
type TimetableItem struct {
	ItemType    string    `json:"item_type"`
	RefID       string    `json:"id"`
	Title       string    `json:"title"`
	LocationID  string    `json:"location_id"`
	Location    string    `json:"location"`
	TeacherName string    `json:"teacher_name,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	Description *string   `json:"description,omitempty"`
}

// WeeklyTimetable is the seven-day view for one student and week.
type WeeklyTimetable struct {
	Week      int                        `json:"week"`
	StartDate string                     `json:"start_date"`
	EndDate   string                     `json:"end_date"`
	Schedule  map[string][]TimetableItem `json:"schedule"`
}
