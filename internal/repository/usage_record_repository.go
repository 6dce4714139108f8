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

const usageRecordColumns = "id, classroom_id, date, time_slot, type, event_id, status, teacher_id, participants, created_at, updated_at"

// UsageRecordRepository persists the generic occupancy ledger. Like
// reservations it is a slot-equality ledger: conflicts are same
// classroom, same date, same named slot.
type UsageRecordRepository struct {
	db         *sqlx.DB
	crossCheck bool
}

// NewUsageRecordRepository creates a new usage record repository.
func NewUsageRecordRepository(db *sqlx.DB, crossCheck bool) *UsageRecordRepository {
	return &UsageRecordRepository{db: db, crossCheck: crossCheck}
}

// List returns usage records with optional filtering and pagination.
func (r *UsageRecordRepository) List(ctx context.Context, filter models.UsageRecordFilter) ([]models.UsageRecord, int, error) {
	base := "FROM usage_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
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
		"type":       true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", usageRecordColumns, base, sortBy, order, size, offset)
	var records []models.UsageRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list usage records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count usage records: %w", err)
	}

	return records, total, nil
}

// FindByID loads a usage record by id.
func (r *UsageRecordRepository) FindByID(ctx context.Context, id string) (*models.UsageRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM usage_records WHERE id = $1", usageRecordColumns)
	var record models.UsageRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create validates references, scans for slot conflicts and inserts the
// record inside one transaction.
func (r *UsageRecordRepository) Create(ctx context.Context, record *models.UsageRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create usage record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.validateReferences(ctx, tx, record.ClassroomID, record.TeacherID); err != nil {
		return err
	}

	if err = r.checkConflicts(ctx, tx, record.ClassroomID, record.Date, record.TimeSlot, ""); err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	const insertQuery = `INSERT INTO usage_records (id, classroom_id, date, time_slot, type, event_id, status, teacher_id, participants, created_at, updated_at)
VALUES (:id, :classroom_id, :date, :time_slot, :type, :event_id, :status, :teacher_id, :participants, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, record); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create usage record: %w", err)
	}
	return nil
}

// Update locks the row, merges the patch and re-checks conflicts when
// classroom, date or slot changed. Returns sql.ErrNoRows when absent.
func (r *UsageRecordRepository) Update(ctx context.Context, id string, patch models.UsageRecordPatch) (updated *models.UsageRecord, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update usage record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf("SELECT %s FROM usage_records WHERE id = $1 FOR UPDATE", usageRecordColumns)
	var existing models.UsageRecord
	if err = tx.GetContext(ctx, &existing, lockQuery, id); err != nil {
		return nil, err
	}

	merged := existing
	if patch.ClassroomID != nil {
		merged.ClassroomID = *patch.ClassroomID
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.TimeSlot != nil {
		merged.TimeSlot = *patch.TimeSlot
	}
	if patch.Type != nil {
		merged.Type = *patch.Type
	}
	if patch.EventID != nil {
		merged.EventID = patch.EventID
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

	if err = r.validateReferences(ctx, tx, merged.ClassroomID, merged.TeacherID); err != nil {
		return nil, err
	}

	if patch.ClassroomID != nil || patch.Date != nil || patch.TimeSlot != nil {
		if err = r.checkConflicts(ctx, tx, merged.ClassroomID, merged.Date, merged.TimeSlot, merged.ID); err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE usage_records SET classroom_id = :classroom_id, date = :date, time_slot = :time_slot, type = :type, event_id = :event_id, status = :status, teacher_id = :teacher_id, participants = :participants, updated_at = :updated_at WHERE id = :id`
	if _, err = sqlx.NamedExecContext(ctx, tx, updateQuery, &merged); err != nil {
		return nil, fmt.Errorf("update usage record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update usage record: %w", err)
	}
	return &merged, nil
}

// Delete removes a usage record. Returns sql.ErrNoRows when absent.
func (r *UsageRecordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM usage_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete usage record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete usage record: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UsageRecordRepository) validateReferences(ctx context.Context, exec sqlx.ExtContext, classroomID string, teacherID *string) error {
	exists, err := referenceExists(ctx, exec, "classrooms", classroomID)
	if err != nil {
		return err
	}
	if !exists {
		return &models.MissingReferenceError{Entity: "classroom", ID: classroomID}
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

func (r *UsageRecordRepository) checkConflicts(ctx context.Context, exec sqlx.ExtContext, classroomID string, date time.Time, timeSlot, excludeID string) error {
	count, err := countUsageSlotConflicts(ctx, exec, classroomID, date, timeSlot, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.BookingConflictError{Source: models.SourceUsageRecord, ClassroomID: classroomID}
	}

	if r.crossCheck {
		if window, ok := models.SlotInterval(timeSlot, date); ok {
			conflict, err := crossLedgerConflict(ctx, exec, models.SourceUsageRecord, classroomID, window, excludeID)
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
