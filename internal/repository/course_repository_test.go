package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryListCodes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"code"}).
		AddRow("2025-BSBASIC-01").
		AddRow("2025-BSBASIC-02")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM courses ORDER BY code")).
		WillReturnRows(rows)

	codes, err := repo.ListCodes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"2025-BSBASIC-01", "2025-BSBASIC-02"}, codes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "code", "series_id", "level_id", "year", "session_number", "delivery", "title",
		"description", "location", "start_date", "end_date", "end_date_auto", "max_seats", "status",
		"created_at", "updated_at",
	}).AddRow("course-1", "2025-BSBASIC-01", "series-1", "level-1", 2025, 1, models.DeliveryOffline,
		"BS Basic 1st", "", "Seoul", now, now.AddDate(0, 0, 4), true, 20, models.CourseStatusOpen, now, now)
	mock.ExpectQuery("SELECT id, code, series_id, .+ FROM courses WHERE id = \\$1").
		WithArgs("course-1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, "2025-BSBASIC-01", course.Code)
	require.True(t, course.EndDateAuto)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{
		Code:     "2025-BSBASIC-01",
		SeriesID: "series-1",
		LevelID:  "level-1",
		Year:     2025,
	}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.Equal(t, models.CourseStatusDraft, course.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("course-1", models.CourseStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "course-1", models.CourseStatusCancelled))
	require.NoError(t, mock.ExpectationsWereMet())
}
