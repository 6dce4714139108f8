package models

import "time"

// Student is a reference entity: booking paths validate that a student
// exists and the timetable enriches items with the owning student, but
// student lifecycle is managed elsewhere.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Number    string    `db:"number" json:"number"`
	FullName  string    `db:"full_name" json:"full_name"`
	ClassID   *string   `db:"class_id" json:"class_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Teacher is a reference entity used for existence validation and
// timetable enrichment.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	CollegeID *string   `db:"college_id" json:"college_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
