package models

import "time"

// Classroom statuses.
const (
	ClassroomStatusAvailable   = "available"
	ClassroomStatusUnavailable = "unavailable"
)

// Classroom is a bookable room. The booking paths reference classrooms
// but never mutate them.
type Classroom struct {
	ID                  string    `db:"id" json:"id"`
	CollegeID           *string   `db:"college_id" json:"college_id,omitempty"`
	Code                string    `db:"code" json:"code"`
	Capacity            int       `db:"capacity" json:"capacity"`
	Location            string    `db:"location" json:"location"`
	Equipment           *string   `db:"equipment" json:"equipment,omitempty"`
	Status              string    `db:"status" json:"status"`
	DeskCapacity        *int      `db:"desk_capacity" json:"desk_capacity,omitempty"`
	AirConditionerCount *int      `db:"air_conditioner_count" json:"air_conditioner_count,omitempty"`
	MultimediaEquipment *string   `db:"multimedia_equipment" json:"multimedia_equipment,omitempty"`
	PhotoURL            *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter describes query params for listing classrooms. When
// Date and TimeSlot are both set the listing becomes a free-room
// search across the occupancy ledgers.
type ClassroomFilter struct {
	CollegeID string
	Status    string
	Date      *time.Time
	TimeSlot  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
