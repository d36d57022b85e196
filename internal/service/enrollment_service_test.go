package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

type stubCourseRepo struct {
	courses map[string]models.Course
	updated *models.Course
}

func (m *stubCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.updated = course
	m.courses[course.ID] = *course
	return nil
}

type stubEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	active      map[string]bool
	activeCount int
	batch       []models.Enrollment
	created     []models.Enrollment
	events      []models.EnrollmentEvent
	status      map[string]models.EnrollmentStatus
}

func (m *stubEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *stubEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubEnrollmentRepo) ExistsActive(ctx context.Context, courseID, traineeID string) (bool, error) {
	return m.active[courseID+":"+traineeID], nil
}

func (m *stubEnrollmentRepo) CountActive(ctx context.Context, courseID string) (int, error) {
	return m.activeCount + len(m.batch) + len(m.created), nil
}

func (m *stubEnrollmentRepo) Stats(ctx context.Context, courseID string) (*models.EnrollmentStats, error) {
	return &models.EnrollmentStats{CurrentActive: m.activeCount}, nil
}

func (m *stubEnrollmentRepo) RecentByCourse(ctx context.Context, courseID string, limit int) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (m *stubEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "enroll-new"
	}
	m.created = append(m.created, *enrollment)
	return nil
}

func (m *stubEnrollmentRepo) CreateBatch(ctx context.Context, enrollments []models.Enrollment) error {
	m.batch = append(m.batch, enrollments...)
	return nil
}

func (m *stubEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, droppedAt *time.Time, reason string) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	return nil
}

func (m *stubEnrollmentRepo) InsertEvent(ctx context.Context, event *models.EnrollmentEvent) error {
	m.events = append(m.events, *event)
	return nil
}

func (m *stubEnrollmentRepo) ListEventsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentEvent, error) {
	return m.events, nil
}

type stubWaitlistAppender struct {
	appended []*models.WaitlistEntry
	open     []models.WaitlistDetail
	closed   map[string]models.WaitlistStatus
}

func (m *stubWaitlistAppender) AppendBatch(ctx context.Context, entries []*models.WaitlistEntry) error {
	base := len(m.appended)
	for i, entry := range entries {
		entry.ID = "wl-" + entry.TraineeID
		entry.Position = base + i + 1
	}
	m.appended = append(m.appended, entries...)
	return nil
}

func (m *stubWaitlistAppender) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error) {
	return m.open, nil
}

func (m *stubWaitlistAppender) FirstOpen(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	if len(m.open) == 0 {
		return nil, sql.ErrNoRows
	}
	entry := m.open[0].WaitlistEntry
	return &entry, nil
}

func (m *stubWaitlistAppender) Close(ctx context.Context, id string, status models.WaitlistStatus) error {
	if m.closed == nil {
		m.closed = make(map[string]models.WaitlistStatus)
	}
	m.closed[id] = status
	return nil
}

type stubTraineeRepo struct {
	trainees map[string]models.Trainee
}

func (m *stubTraineeRepo) Search(ctx context.Context, filter models.TraineeFilter) ([]models.Trainee, int, error) {
	out := make([]models.Trainee, 0, len(m.trainees))
	for _, t := range m.trainees {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *stubTraineeRepo) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	if t, ok := m.trainees[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubTraineeRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Trainee, error) {
	out := make([]models.Trainee, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.trainees[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func newEnrollmentFixture(maxSeats, active int) (*EnrollmentService, *stubEnrollmentRepo, *stubWaitlistAppender) {
	courses := &stubCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", MaxSeats: maxSeats, Status: models.CourseStatusOpen},
	}}
	enrollments := &stubEnrollmentRepo{activeCount: active, active: map[string]bool{}}
	waitlist := &stubWaitlistAppender{}
	trainees := &stubTraineeRepo{trainees: map[string]models.Trainee{
		"t1": {ID: "t1", FullName: "Kim"},
		"t2": {ID: "t2", FullName: "Lee"},
		"t3": {ID: "t3", FullName: "Park"},
	}}
	svc := NewEnrollmentService(enrollments, waitlist, trainees, courses, nil, nil, nil)
	return svc, enrollments, waitlist
}

func TestBulkEnrollSplitsByCapacity(t *testing.T) {
	svc, enrollments, waitlist := newEnrollmentFixture(10, 8)

	result, err := svc.BulkEnroll(context.Background(), "course-1", BulkEnrollRequest{
		TraineeIDs: []string{"t1", "t2", "t3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.EnrolledCount)
	assert.Equal(t, 1, result.WaitlistedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Len(t, enrollments.batch, 2)
	require.Len(t, waitlist.appended, 1)
	assert.Equal(t, "t3", waitlist.appended[0].TraineeID)
	assert.Equal(t, 1, waitlist.appended[0].Position)
	assert.Equal(t, 10, result.CurrentActive)
	assert.Equal(t, 0, result.AvailableSeats)
}

func TestBulkEnrollReportsPerTraineeFailures(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture(10, 0)
	enrollments.active["course-1:t2"] = true

	result, err := svc.BulkEnroll(context.Background(), "course-1", BulkEnrollRequest{
		TraineeIDs: []string{"t1", "t2", "ghost", "t1"},
	})
	require.NoError(t, err)

	outcomes := map[string]BulkEnrollItem{}
	for _, item := range result.Items {
		existing, seen := outcomes[item.TraineeID]
		if !seen || existing.Outcome == models.OutcomeFailed {
			outcomes[item.TraineeID] = item
		}
	}
	assert.Equal(t, models.OutcomeEnrolled, outcomes["t1"].Outcome)
	assert.Equal(t, models.OutcomeFailed, outcomes["t2"].Outcome)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Message, outcomes["t2"].Reason)
	assert.Equal(t, models.OutcomeFailed, outcomes["ghost"].Outcome)
	assert.Equal(t, 1, result.EnrolledCount)
	assert.Equal(t, 3, result.FailedCount)
}

func TestBulkEnrollSkipWaitlistFailsOverflow(t *testing.T) {
	svc, _, waitlist := newEnrollmentFixture(1, 0)

	result, err := svc.BulkEnroll(context.Background(), "course-1", BulkEnrollRequest{
		TraineeIDs:   []string{"t1", "t2"},
		SkipWaitlist: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.EnrolledCount)
	assert.Equal(t, 0, result.WaitlistedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Empty(t, waitlist.appended)
}

func TestBulkEnrollRejectsClosedCourse(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture(10, 0)
	course := models.Course{ID: "course-1", MaxSeats: 10, Status: models.CourseStatusCompleted}
	svc.courses.(*stubCourseRepo).courses["course-1"] = course

	_, err := svc.BulkEnroll(context.Background(), "course-1", BulkEnrollRequest{TraineeIDs: []string{"t1"}})
	require.Error(t, err)
	assert.Empty(t, enrollments.batch)
}

func TestUnenrollDropsActiveOnly(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture(10, 1)
	enrollments.enrollments = map[string]models.Enrollment{
		"e1": {ID: "e1", CourseID: "course-1", TraineeID: "t1", Status: models.EnrollmentStatusActive},
		"e2": {ID: "e2", CourseID: "course-1", TraineeID: "t2", Status: models.EnrollmentStatusDropped},
	}

	require.NoError(t, svc.Unenroll(context.Background(), "e1", "schedule conflict"))
	assert.Equal(t, models.EnrollmentStatusDropped, enrollments.status["e1"])
	require.Len(t, enrollments.events, 1)
	assert.Equal(t, models.HistoryDropped, enrollments.events[0].Action)

	err := svc.Unenroll(context.Background(), "e2", "")
	require.Error(t, err)
}

func TestBulkUnenrollReportsPerItemOutcome(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture(10, 2)
	enrollments.enrollments = map[string]models.Enrollment{
		"e1": {ID: "e1", CourseID: "course-1", TraineeID: "t1", Status: models.EnrollmentStatusActive},
	}

	items, err := svc.BulkUnenroll(context.Background(), BulkUnenrollRequest{
		EnrollmentIDs: []string{"e1", "missing"},
		Reason:        "team transfer",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Dropped)
	assert.False(t, items[1].Dropped)
	assert.NotEmpty(t, items[1].Reason)
}

func TestSummaryUsesAuthoritativeSeatCounts(t *testing.T) {
	svc, _, waitlist := newEnrollmentFixture(20, 15)
	waitlist.open = []models.WaitlistDetail{
		{WaitlistEntry: models.WaitlistEntry{ID: "w1", Position: 1}},
		{WaitlistEntry: models.WaitlistEntry{ID: "w2", Position: 2}},
	}

	summary, err := svc.Summary(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 20, summary.Stats.MaxSeats)
	assert.Equal(t, 15, summary.Stats.CurrentActive)
	assert.Equal(t, 5, summary.Stats.AvailableSeats)
	assert.Equal(t, 2, summary.Stats.WaitingCount)
	assert.Len(t, summary.WaitingList, 2)
}
