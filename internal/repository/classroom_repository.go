package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/reservation-api/internal/models"
)

const classroomColumns = "id, college_id, code, capacity, location, equipment, status, desk_capacity, air_conditioner_count, multimedia_equipment, photo_url, created_at, updated_at"

// ClassroomRepository reads the classroom reference table. Booking
// paths never mutate classrooms.
type ClassroomRepository struct {
	db             *sqlx.DB
	includeCourses bool
}

// NewClassroomRepository creates a new classroom repository. When
// includeCourses is set the free-room search also excludes rooms with
// an overlapping course session.
func NewClassroomRepository(db *sqlx.DB, includeCourses bool) *ClassroomRepository {
	return &ClassroomRepository{db: db, includeCourses: includeCourses}
}

// List returns classrooms with optional filtering and pagination.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	base := "FROM classrooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CollegeID != "" {
		conditions = append(conditions, fmt.Sprintf("college_id = $%d", len(args)+1))
		args = append(args, filter.CollegeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"code":       true,
		"capacity":   true,
		"location":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classroomColumns, base, sortBy, order, size, offset)
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}

	return classrooms, total, nil
}

// FindByID loads a classroom by id.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	query := fmt.Sprintf("SELECT %s FROM classrooms WHERE id = $1", classroomColumns)
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// FindByIDs batch-loads classrooms for timetable enrichment.
func (r *ClassroomRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Classroom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM classrooms WHERE id IN (?)", classroomColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build classrooms query: %w", err)
	}
	query = r.db.Rebind(query)
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms by ids: %w", err)
	}
	return classrooms, nil
}

// FindAvailable returns available classrooms that carry no active
// reservation or usage record for the slot and no schedule entry
// overlapping the slot's wall-clock window. Courses are excluded from
// the scan unless the repository was built with includeCourses.
func (r *ClassroomRepository) FindAvailable(ctx context.Context, filter models.ClassroomFilter, window models.Interval) ([]models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms c
WHERE c.status = 'available'
  AND NOT EXISTS (
    SELECT 1 FROM reservations r
    WHERE r.classroom_id = c.id AND r.date = $1 AND r.time_slot = $2
      AND r.status NOT IN ('cancelled', 'rejected'))
  AND NOT EXISTS (
    SELECT 1 FROM usage_records u
    WHERE u.classroom_id = c.id AND u.date = $1 AND u.time_slot = $2
      AND u.status NOT IN ('cancelled', 'rejected'))
  AND NOT EXISTS (
    SELECT 1 FROM schedules s
    WHERE s.classroom_id = c.id AND s.start_time < $4 AND s.end_time > $3
      AND s.status NOT IN ('cancelled', 'rejected'))`,
		prefixColumns("c", classroomColumns))

	if r.includeCourses {
		query += `
  AND NOT EXISTS (
    SELECT 1 FROM courses co
    WHERE co.classroom_id = c.id AND co.start_time < $4 AND co.end_time > $3)`
	}

	args := []interface{}{*filter.Date, filter.TimeSlot, window.Start, window.End}
	if filter.CollegeID != "" {
		query += fmt.Sprintf(" AND c.college_id = $%d", len(args)+1)
		args = append(args, filter.CollegeID)
	}
	query += " ORDER BY c.code ASC"

	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, fmt.Errorf("find available classrooms: %w", err)
	}
	return classrooms, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
