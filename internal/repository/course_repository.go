package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/reservation-api/internal/models"
)

const courseColumns = "id, name, teacher_id, classroom_id, start_time, end_time, time_slot, participants, created_at, updated_at"

// CourseRepository persists class sessions. Interval ledger without a
// status column: every stored row blocks the classroom.
type CourseRepository struct {
	db         *sqlx.DB
	crossCheck bool
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB, crossCheck bool) *CourseRepository {
	return &CourseRepository{db: db, crossCheck: crossCheck}
}

// List returns courses with optional filtering and pagination.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"start_time": true,
		"end_time":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_time"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create validates references, scans for overlapping sessions and
// inserts the course inside one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.validateReferences(ctx, tx, course.ClassroomID, course.TeacherID); err != nil {
		return err
	}

	if err = r.checkConflicts(ctx, tx, course.ClassroomID, course.Interval(), ""); err != nil {
		return err
	}

	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const insertQuery = `INSERT INTO courses (id, name, teacher_id, classroom_id, start_time, end_time, time_slot, participants, created_at, updated_at)
VALUES (:id, :name, :teacher_id, :classroom_id, :start_time, :end_time, :time_slot, :participants, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// Update locks the row, merges the patch and re-checks overlap when
// classroom or interval changed. Returns sql.ErrNoRows when absent.
func (r *CourseRepository) Update(ctx context.Context, id string, patch models.CoursePatch) (updated *models.Course, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 FOR UPDATE", courseColumns)
	var existing models.Course
	if err = tx.GetContext(ctx, &existing, lockQuery, id); err != nil {
		return nil, err
	}

	merged := existing
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.TeacherID != nil {
		merged.TeacherID = *patch.TeacherID
	}
	if patch.ClassroomID != nil {
		merged.ClassroomID = *patch.ClassroomID
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.TimeSlot != nil {
		merged.TimeSlot = patch.TimeSlot
	}
	if patch.Participants != nil {
		merged.Participants = *patch.Participants
	}

	if err = r.validateReferences(ctx, tx, merged.ClassroomID, merged.TeacherID); err != nil {
		return nil, err
	}

	if patch.ClassroomID != nil || patch.StartTime != nil || patch.EndTime != nil {
		if err = r.checkConflicts(ctx, tx, merged.ClassroomID, merged.Interval(), merged.ID); err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE courses SET name = :name, teacher_id = :teacher_id, classroom_id = :classroom_id, start_time = :start_time, end_time = :end_time, time_slot = :time_slot, participants = :participants, updated_at = :updated_at WHERE id = :id`
	if _, err = sqlx.NamedExecContext(ctx, tx, updateQuery, &merged); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update course: %w", err)
	}
	return &merged, nil
}

// Delete removes a course. Returns sql.ErrNoRows when absent.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CourseRepository) validateReferences(ctx context.Context, exec sqlx.ExtContext, classroomID, teacherID string) error {
	exists, err := referenceExists(ctx, exec, "classrooms", classroomID)
	if err != nil {
		return err
	}
	if !exists {
		return &models.MissingReferenceError{Entity: "classroom", ID: classroomID}
	}
	exists, err = referenceExists(ctx, exec, "teachers", teacherID)
	if err != nil {
		return err
	}
	if !exists {
		return &models.MissingReferenceError{Entity: "teacher", ID: teacherID}
	}
	return nil
}

func (r *CourseRepository) checkConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, window models.Interval, excludeID string) error {
	count, err := countCourseOverlaps(ctx, exec, classroomID, window, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.BookingConflictError{Source: models.SourceCourse, ClassroomID: classroomID}
	}

	if r.crossCheck {
		conflict, err := crossLedgerConflict(ctx, exec, models.SourceCourse, classroomID, window, excludeID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}
	}
	return nil
}
