package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

const courseArchiveStatusColumns = `id, course_id, user_id, is_archived, archive_date, created_at, updated_at`

// CourseArchiveStatusRepository persists course archive statuses. Queries
// use ? placeholders rebound for the connected driver.
type CourseArchiveStatusRepository struct {
	db *sqlx.DB
}

// NewCourseArchiveStatusRepository constructs the repository.
func NewCourseArchiveStatusRepository(db *sqlx.DB) *CourseArchiveStatusRepository {
	return &CourseArchiveStatusRepository{db: db}
}

// Create inserts a row and sets its generated ID.
func (r *CourseArchiveStatusRepository) Create(ctx context.Context, status *models.CourseArchiveStatus) error {
	now := time.Now().UTC()
	if status.CreatedAt.IsZero() {
		status.CreatedAt = now
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = status.CreatedAt
	}
	query := r.db.Rebind(`INSERT INTO sample_plugin_coursearchivestatus
	(course_id, user_id, is_archived, archive_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	row := r.db.QueryRowxContext(ctx, query,
		status.CourseID, status.UserID, status.IsArchived, status.ArchiveDate, status.CreatedAt, status.UpdatedAt)
	if err := row.Scan(&status.ID); err != nil {
		return fmt.Errorf("create course archive status: %w", err)
	}
	return nil
}

// GetByID returns sql.ErrNoRows when the row does not exist.
func (r *CourseArchiveStatusRepository) GetByID(ctx context.Context, id int64) (*models.CourseArchiveStatus, error) {
	query := r.db.Rebind(`SELECT ` + courseArchiveStatusColumns + ` FROM sample_plugin_coursearchivestatus WHERE id = ?`)
	var status models.CourseArchiveStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetByCourseAndUser looks up the unique row for a learner in a course.
func (r *CourseArchiveStatusRepository) GetByCourseAndUser(ctx context.Context, courseID opaquekeys.CourseKey, userID int64) (*models.CourseArchiveStatus, error) {
	query := r.db.Rebind(`SELECT ` + courseArchiveStatusColumns + ` FROM sample_plugin_coursearchivestatus WHERE course_id = ? AND user_id = ?`)
	var status models.CourseArchiveStatus
	if err := r.db.GetContext(ctx, &status, query, courseID, userID); err != nil {
		return nil, err
	}
	return &status, nil
}

// List returns a page of rows and the total matching the filter.
func (r *CourseArchiveStatusRepository) List(ctx context.Context, filter models.CourseArchiveStatusFilter) ([]models.CourseArchiveStatus, int, error) {
	where, args := buildCourseArchiveStatusWhere(filter)

	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM sample_plugin_coursearchivestatus` + where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course archive statuses: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM sample_plugin_coursearchivestatus%s ORDER BY id ASC LIMIT %d OFFSET %d`,
		courseArchiveStatusColumns, where, size, (page-1)*size))
	var items []models.CourseArchiveStatus
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course archive statuses: %w", err)
	}
	return items, total, nil
}

// Update writes the mutable columns and bumps updated_at.
func (r *CourseArchiveStatusRepository) Update(ctx context.Context, status *models.CourseArchiveStatus) error {
	status.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE sample_plugin_coursearchivestatus
	SET course_id = ?, user_id = ?, is_archived = ?, archive_date = ?, updated_at = ?
	WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		status.CourseID, status.UserID, status.IsArchived, status.ArchiveDate, status.UpdatedAt, status.ID)
	if err != nil {
		return fmt.Errorf("update course archive status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course archive status update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a row by ID.
func (r *CourseArchiveStatusRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM sample_plugin_coursearchivestatus WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course archive status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course archive status delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteArchivedBefore purges archived rows whose archive date is older
// than cutoff and reports how many were removed.
func (r *CourseArchiveStatusRepository) DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM sample_plugin_coursearchivestatus WHERE is_archived = ? AND archive_date < ?`)
	res, err := r.db.ExecContext(ctx, query, true, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge archived course statuses: %w", err)
	}
	return res.RowsAffected()
}

func buildCourseArchiveStatusWhere(filter models.CourseArchiveStatusFilter) (string, []interface{}) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.CourseID != nil {
		conditions = append(conditions, "course_id = ?")
		args = append(args, *filter.CourseID)
	}
	if filter.IsArchived != nil {
		conditions = append(conditions, "is_archived = ?")
		args = append(args, *filter.IsArchived)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
