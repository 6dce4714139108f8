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

const reservationColumns = "id, student_id, classroom_id, activity_name, description, date, time_slot, status, teacher_id, participants, created_at, updated_at"

// ReservationRepository provides persistence for ad-hoc classroom
// reservations. Create and Update run the full booking transaction:
// referential validation, conflict scan and write commit or roll back
// as one unit.
type ReservationRepository struct {
	db         *sqlx.DB
	crossCheck bool
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *sqlx.DB, crossCheck bool) *ReservationRepository {
	return &ReservationRepository{db: db, crossCheck: crossCheck}
}

// List returns reservations with optional filtering and pagination.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, int, error) {
	base := "FROM reservations WHERE 1=1"
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
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"date":       true,
		"time_slot":  true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", reservationColumns, base, sortBy, order, size, offset)
	var reservations []models.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	return reservations, total, nil
}

// FindByID loads a reservation by id.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	query := fmt.Sprintf("SELECT %s FROM reservations WHERE id = $1", reservationColumns)
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListApprovedForStudentRange returns approved reservations for a
// student with date inside [from, to], used by the weekly timetable.
func (r *ReservationRepository) ListApprovedForStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations
WHERE student_id = $1 AND status = 'approved' AND date BETWEEN $2 AND $3
ORDER BY date ASC, time_slot ASC`, reservationColumns)
	var reservations []models.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list approved reservations: %w", err)
	}
	return reservations, nil
}

// Create validates references, scans for slot conflicts and inserts the
// reservation, all inside one transaction.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create reservation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.validateReferences(ctx, tx, reservation.ClassroomID, &reservation.StudentID, reservation.TeacherID); err != nil {
		return err
	}

	if err = r.checkConflicts(ctx, tx, reservation.ClassroomID, reservation.Date, reservation.TimeSlot, ""); err != nil {
		return err
	}

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	const insertQuery = `INSERT INTO reservations (id, student_id, classroom_id, activity_name, description, date, time_slot, status, teacher_id, participants, created_at, updated_at)
VALUES (:id, :student_id, :classroom_id, :activity_name, :description, :date, :time_slot, :status, :teacher_id, :participants, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, reservation); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create reservation: %w", err)
	}
	return nil
}

// Update locks the row, merges the patch over stored values and
// re-runs the conflict scan only when classroom, date or slot changed.
// Returns sql.ErrNoRows when the reservation does not exist.
func (r *ReservationRepository) Update(ctx context.Context, id string, patch models.ReservationPatch) (updated *models.Reservation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update reservation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf("SELECT %s FROM reservations WHERE id = $1 FOR UPDATE", reservationColumns)
	var existing models.Reservation
	if err = tx.GetContext(ctx, &existing, lockQuery, id); err != nil {
		return nil, err
	}

	merged := existing
	if patch.StudentID != nil {
		merged.StudentID = *patch.StudentID
	}
	if patch.ClassroomID != nil {
		merged.ClassroomID = *patch.ClassroomID
	}
	if patch.ActivityName != nil {
		merged.ActivityName = *patch.ActivityName
	}
	if patch.Description != nil {
		merged.Description = patch.Description
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.TimeSlot != nil {
		merged.TimeSlot = *patch.TimeSlot
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.TeacherID != nil {
		merged.TeacherID = patch.TeacherID
	}
	if patch.Participants != nil {
		merged.Participants = *patch.Participants
	}

	if err = r.validateReferences(ctx, tx, merged.ClassroomID, &merged.StudentID, merged.TeacherID); err != nil {
		return nil, err
	}

	if patch.ClassroomID != nil || patch.Date != nil || patch.TimeSlot != nil {
		if err = r.checkConflicts(ctx, tx, merged.ClassroomID, merged.Date, merged.TimeSlot, merged.ID); err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE reservations SET student_id = :student_id, classroom_id = :classroom_id, activity_name = :activity_name, description = :description, date = :date, time_slot = :time_slot, status = :status, teacher_id = :teacher_id, participants = :participants, updated_at = :updated_at WHERE id = :id`
	if _, err = sqlx.NamedExecContext(ctx, tx, updateQuery, &merged); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update reservation: %w", err)
	}
	return &merged, nil
}

// Delete removes a reservation. Returns sql.ErrNoRows when absent.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ReservationRepository) validateReferences(ctx context.Context, exec sqlx.ExtContext, classroomID string, studentID, teacherID *string) error {
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

func (r *ReservationRepository) checkConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, date time.Time, timeSlot, excludeID string) error {
	count, err := countReservationSlotConflicts(ctx, exec, classroomID, date, timeSlot, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.BookingConflictError{Source: models.SourceReservation, ClassroomID: classroomID}
	}

	if r.crossCheck {
		if window, ok := models.SlotInterval(timeSlot, date); ok {
			conflict, err := crossLedgerConflict(ctx, exec, models.SourceReservation, classroomID, window, excludeID)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflict
			}
		}
	}
	return nil
}
