package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

func waitlistEntryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "course_id", "trainee_id", "position", "priority", "status", "added_at", "notified_at",
	})
}

func TestWaitlistRepositoryAppendBatchAssignsContiguousPositions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(position\\), 0\\) \\+ 1 FROM waitlist_entries").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec("INSERT INTO waitlist_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO waitlist_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []*models.WaitlistEntry{
		{CourseID: "course-1", TraineeID: "t3"},
		{CourseID: "course-1", TraineeID: "t4"},
	}
	require.NoError(t, repo.AppendBatch(context.Background(), entries))
	require.Equal(t, 3, entries[0].Position)
	require.Equal(t, 4, entries[1].Position)
	require.Equal(t, models.WaitlistStatusWaiting, entries[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryCloseRenumbersTail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, course_id, trainee_id, position, .+ FOR UPDATE").
		WithArgs("entry-2").
		WillReturnRows(waitlistEntryRows().
			AddRow("entry-2", "course-1", "t2", 2, models.PriorityNormal, models.WaitlistStatusWaiting, time.Now(), nil))
	mock.ExpectExec("UPDATE waitlist_entries SET status = \\$2, position = 0 WHERE id = \\$1").
		WithArgs("entry-2", models.WaitlistStatusEnrolled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE waitlist_entries SET position = position - 1").
		WithArgs("course-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Close(context.Background(), "entry-2", models.WaitlistStatusEnrolled))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryReorderMovesEarlier(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, course_id, trainee_id, position, .+ FOR UPDATE").
		WithArgs("entry-5").
		WillReturnRows(waitlistEntryRows().
			AddRow("entry-5", "course-1", "t5", 5, models.PriorityUrgent, models.WaitlistStatusWaiting, time.Now(), nil))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM waitlist_entries").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectExec("UPDATE waitlist_entries SET position = position \\+ 1").
		WithArgs("course-1", 1, 5).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("UPDATE waitlist_entries SET position = \\$2 WHERE id = \\$1").
		WithArgs("entry-5", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reorder(context.Background(), "entry-5", 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryReorderClampsPosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, course_id, trainee_id, position, .+ FOR UPDATE").
		WithArgs("entry-1").
		WillReturnRows(waitlistEntryRows().
			AddRow("entry-1", "course-1", "t1", 1, models.PriorityNormal, models.WaitlistStatusWaiting, time.Now(), nil))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM waitlist_entries").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	// Requested position beyond the tail clamps to the current count and
	// becomes a no-op for a single-entry list.
	require.NoError(t, repo.Reorder(context.Background(), "entry-1", 9))
	require.NoError(t, mock.ExpectationsWereMet())
}
