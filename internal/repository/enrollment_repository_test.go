package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

func TestEnrollmentRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs("course-1", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))

	count, err := repo.CountActive(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, 8, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM enrollments WHERE course_id = \\$1 AND trainee_id = \\$2 AND status = \\$3 LIMIT 1").
		WithArgs("course-1", "trainee-1", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "course-1", "trainee-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateBatchTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollments := []models.Enrollment{
		{CourseID: "course-1", TraineeID: "t1"},
		{CourseID: "course-1", TraineeID: "t2"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), enrollments))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	droppedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, dropped_at = $3, drop_reason = $4 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusDropped, droppedAt, "transferred out").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusDropped, &droppedAt, "transferred out"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"current_active", "completed", "dropped"}).AddRow(18, 4, 2)
	mock.ExpectQuery("SELECT\\s+COUNT\\(\\*\\) FILTER").
		WithArgs("course-1").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, 18, stats.CurrentActive)
	require.Equal(t, 4, stats.Completed)
	require.Equal(t, 2, stats.Dropped)
	require.NoError(t, mock.ExpectationsWereMet())
}
