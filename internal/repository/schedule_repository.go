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

const scheduleColumns = "id, student_id, course_name, classroom_id, start_time, end_time, status, teacher_id, time_slot, created_at, updated_at"

// ScheduleRepository persists per-student timetable entries. This is an
// interval ledger: conflicts are detected by wall-clock overlap on the
// classroom, not by named-slot equality.
type ScheduleRepository struct {
	db         *sqlx.DB
	crossCheck bool
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB, crossCheck bool) *ScheduleRepository {
	return &ScheduleRepository{db: db, crossCheck: crossCheck}
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
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
		"start_time": true,
		"end_time":   true,
		"status":     true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListForStudentRange returns a student's schedules whose start_time
// falls inside the half-open window [from, to), ordered for the weekly
// timetable. The exclusive upper bound keeps an entry starting exactly
// at the next week's Monday midnight out of the requested week.
func (r *ScheduleRepository) ListForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules
WHERE student_id = $1 AND start_time >= $2 AND start_time < $3
ORDER BY start_time ASC`, scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list schedules for student: %w", err)
	}
	return schedules, nil
}

// Create validates references, scans for overlapping entries and
// inserts the schedule inside one transaction.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.validateReferences(ctx, tx, schedule.ClassroomID, &schedule.StudentID, schedule.TeacherID); err != nil {
		return err
	}

	if err = r.checkConflicts(ctx, tx, schedule.ClassroomID, schedule.Interval(), ""); err != nil {
		return err
	}

	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const insertQuery = `INSERT INTO schedules (id, student_id, course_name, classroom_id, start_time, end_time, status, teacher_id, time_slot, created_at, updated_at)
VALUES (:id, :student_id, :course_name, :classroom_id, :start_time, :end_time, :status, :teacher_id, :time_slot, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule: %w", err)
	}
	return nil
}

// Update locks the row, merges the patch and re-checks overlap when
// classroom or interval changed. Returns sql.ErrNoRows when absent.
func (r *ScheduleRepository) Update(ctx context.Context, id string, patch models.SchedulePatch) (updated *models.Schedule, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1 FOR UPDATE", scheduleColumns)
	var existing models.Schedule
	if err = tx.GetContext(ctx, &existing, lockQuery, id); err != nil {
		return nil, err
	}

	merged := existing
	if patch.StudentID != nil {
		merged.StudentID = *patch.StudentID
	}
	if patch.CourseName != nil {
		merged.CourseName = *patch.CourseName
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
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.TeacherID != nil {
		merged.TeacherID = patch.TeacherID
	}
	if patch.TimeSlot != nil {
		merged.TimeSlot = patch.TimeSlot
	}

	if err = r.validateReferences(ctx, tx, merged.ClassroomID, &merged.StudentID, merged.TeacherID); err != nil {
		return nil, err
	}

	if patch.ClassroomID != nil || patch.StartTime != nil || patch.EndTime != nil {
		if err = r.checkConflicts(ctx, tx, merged.ClassroomID, merged.Interval(), merged.ID); err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE schedules SET student_id = :student_id, course_name = :course_name, classroom_id = :classroom_id, start_time = :start_time, end_time = :end_time, status = :status, teacher_id = :teacher_id, time_slot = :time_slot, updated_at = :updated_at WHERE id = :id`
	if _, err = sqlx.NamedExecContext(ctx, tx, updateQuery, &merged); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update schedule: %w", err)
	}
	return &merged, nil
}

// Delete removes a schedule. Returns sql.ErrNoRows when absent.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ScheduleRepository) validateReferences(ctx context.Context, exec sqlx.ExtContext, classroomID string, studentID, teacherID *string) error {
	exists, err := referenceExists(ctx, exec, "classrooms", classroomID)
	if err != nil {
		return err
	}
	if !exists {
		return &models.MissingReferenceError{Entity: "classroom", ID: classroomID}
	}
	if studentID != nil {
		exists, err = referenceExists(ctx, exec, "students", *studentID)
		if err != nil {
			return err
		}
		if !exists {
			return &models.MissingReferenceError{Entity: "student", ID: *studentID}
		}
	}
	if teacherID != nil {
		exists, err = referenceExists(ctx, exec, "teachers", *teacherID)
		if err != nil {
			return err
		}
		if !exists {
			return &models.MissingReferenceError{Entity: "teacher", ID: *teacherID}
		}
	}
	return nil
}

func (r *ScheduleRepository) checkConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, window models.Interval, excludeID string) error {
	count, err := countScheduleOverlaps(ctx, exec, classroomID, window, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.BookingConflictError{Source: models.SourceSchedule, ClassroomID: classroomID}
	}

	if r.crossCheck {
		conflict, err := crossLedgerConflict(ctx, exec, models.SourceSchedule, classroomID, window, excludeID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}
	}
	return nil
}
