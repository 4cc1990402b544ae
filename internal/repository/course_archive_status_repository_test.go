package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	"github.com/noah-isme/openedx-sample-plugin/pkg/database"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

const demoCourse = "course-v1:edX+DemoX+Demo_Course"

var statusColumns = []string{"id", "course_id", "user_id", "is_archived", "archive_date", "created_at", "updated_at"}

func newStatusRepoMock(t *testing.T) (*CourseArchiveStatusRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewCourseArchiveStatusRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestCourseArchiveStatusRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newStatusRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sample_plugin_coursearchivestatus")).
		WithArgs(demoCourse, int64(4), true, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	now := time.Now().UTC()
	status := &models.CourseArchiveStatus{
		CourseID:    opaquekeys.MustParseCourseKey(demoCourse),
		UserID:      4,
		IsArchived:  true,
		ArchiveDate: &now,
	}
	require.NoError(t, repo.Create(context.Background(), status))

	assert.Equal(t, int64(11), status.ID)
	assert.False(t, status.CreatedAt.IsZero())
	assert.Equal(t, status.CreatedAt, status.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseArchiveStatusRepositoryGetByID(t *testing.T) {
	repo, mock, cleanup := newStatusRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, user_id")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(statusColumns).AddRow(11, demoCourse, 4, false, nil, now, now))

	found, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "DemoX", found.CourseID.Course)
	assert.Nil(t, found.ArchiveDate)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, user_id")).
		WithArgs(int64(12)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), 12)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseArchiveStatusRepositoryListFilters(t *testing.T) {
	repo, mock, cleanup := newStatusRepoMock(t)
	defer cleanup()

	userID := int64(4)
	archived := true
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sample_plugin_coursearchivestatus WHERE user_id = ? AND is_archived = ?")).
		WithArgs(userID, archived).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC LIMIT 2 OFFSET 2")).
		WithArgs(userID, archived).
		WillReturnRows(sqlmock.NewRows(statusColumns).AddRow(3, demoCourse, 4, true, now, now, now))

	items, total, err := repo.List(context.Background(), models.CourseArchiveStatusFilter{
		UserID:     &userID,
		IsArchived: &archived,
		Page:       2,
		PageSize:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.NotNil(t, items[0].ArchiveDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseArchiveStatusRepositoryUpdateMissing(t *testing.T) {
	repo, mock, cleanup := newStatusRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sample_plugin_coursearchivestatus")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.CourseArchiveStatus{ID: 99, CourseID: opaquekeys.MustParseCourseKey(demoCourse)})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseArchiveStatusRepositoryDeleteArchivedBefore(t *testing.T) {
	repo, mock, cleanup := newStatusRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sample_plugin_coursearchivestatus WHERE is_archived = ?")).
		WithArgs(true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	removed, err := repo.DeleteArchivedBefore(context.Background(), time.Now().AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseArchiveStatusRepositoryOnSQLite(t *testing.T) {
	db, err := database.NewSQLite(config.DatabaseConfig{Driver: database.DriverSQLite})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(context.Background(), db))

	repo := NewCourseArchiveStatusRepository(db)
	ctx := context.Background()
	key := opaquekeys.MustParseCourseKey(demoCourse)

	status := &models.CourseArchiveStatus{CourseID: key, UserID: 4}
	status.SetArchived(true, time.Now())
	require.NoError(t, repo.Create(ctx, status))
	require.NotZero(t, status.ID)

	dup := &models.CourseArchiveStatus{CourseID: key, UserID: 4}
	assert.Error(t, repo.Create(ctx, dup))

	found, err := repo.GetByCourseAndUser(ctx, key, 4)
	require.NoError(t, err)
	assert.Equal(t, status.ID, found.ID)
	assert.True(t, found.IsArchived)
	require.NotNil(t, found.ArchiveDate)

	found.SetArchived(false, time.Now())
	require.NoError(t, repo.Update(ctx, found))

	items, total, err := repo.List(ctx, models.CourseArchiveStatusFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.False(t, items[0].IsArchived)
	assert.Nil(t, items[0].ArchiveDate)

	require.NoError(t, repo.Delete(ctx, status.ID))
	assert.ErrorIs(t, repo.Delete(ctx, status.ID), sql.ErrNoRows)
}
