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

type stubWaitlistStore struct {
	entries   []models.WaitlistEntry
	closed    map[string]models.WaitlistStatus
	reordered map[string]int
	notified  map[string]time.Time
}

func (m *stubWaitlistStore) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error) {
	out := make([]models.WaitlistDetail, 0)
	for _, e := range m.entries {
		if e.CourseID == courseID && m.isOpen(e.ID) {
			out = append(out, models.WaitlistDetail{WaitlistEntry: e})
		}
	}
	return out, nil
}

func (m *stubWaitlistStore) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			if status, ok := m.closed[id]; ok {
				e.Status = status
			}
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubWaitlistStore) CountOpen(ctx context.Context, courseID string) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.CourseID == courseID && m.isOpen(e.ID) {
			count++
		}
	}
	return count, nil
}

func (m *stubWaitlistStore) Close(ctx context.Context, id string, status models.WaitlistStatus) error {
	if m.closed == nil {
		m.closed = make(map[string]models.WaitlistStatus)
	}
	m.closed[id] = status
	return nil
}

func (m *stubWaitlistStore) Reorder(ctx context.Context, id string, newPosition int) error {
	if m.reordered == nil {
		m.reordered = make(map[string]int)
	}
	m.reordered[id] = newPosition
	return nil
}

func (m *stubWaitlistStore) MarkNotified(ctx context.Context, id string, at time.Time) error {
	if m.notified == nil {
		m.notified = make(map[string]time.Time)
	}
	m.notified[id] = at
	return nil
}

func (m *stubWaitlistStore) FirstOpen(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	for _, e := range m.entries {
		if e.CourseID == courseID && m.isOpen(e.ID) {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubWaitlistStore) ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error) {
	out := make([]models.WaitlistEntry, 0)
	for _, e := range m.entries {
		if e.Status == models.WaitlistStatusNotified && e.NotifiedAt != nil && e.NotifiedAt.Before(cutoff) && m.isOpen(e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *stubWaitlistStore) isOpen(id string) bool {
	_, closed := m.closed[id]
	return !closed
}

type stubEnroller struct {
	activeCount int
	created     []models.Enrollment
	events      []models.EnrollmentEvent
}

func (m *stubEnroller) CountActive(ctx context.Context, courseID string) (int, error) {
	return m.activeCount + len(m.created), nil
}

func (m *stubEnroller) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enroll-" + enrollment.TraineeID
	m.created = append(m.created, *enrollment)
	return nil
}

func (m *stubEnroller) InsertEvent(ctx context.Context, event *models.EnrollmentEvent) error {
	m.events = append(m.events, *event)
	return nil
}

func newWaitlistFixture(maxSeats, active int, entries []models.WaitlistEntry) (*WaitlistService, *stubWaitlistStore, *stubEnroller) {
	store := &stubWaitlistStore{entries: entries}
	enroller := &stubEnroller{activeCount: active}
	courses := &stubCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", MaxSeats: maxSeats, Status: models.CourseStatusOpen},
	}}
	svc := NewWaitlistService(store, enroller, courses, nil, 48*time.Hour, nil)
	return svc, store, enroller
}

func TestPromoteEnrollsWhenSeatOpen(t *testing.T) {
	svc, store, enroller := newWaitlistFixture(10, 9, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Priority: models.PriorityHigh, Status: models.WaitlistStatusWaiting},
	})

	enrollment, err := svc.Promote(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "t1", enrollment.TraineeID)
	assert.Equal(t, models.PriorityHigh, enrollment.Priority)
	assert.Equal(t, models.WaitlistStatusEnrolled, store.closed["w1"])
	require.Len(t, enroller.events, 1)
	assert.Equal(t, models.HistoryPromoted, enroller.events[0].Action)
}

func TestPromoteRejectsFullCourse(t *testing.T) {
	svc, store, enroller := newWaitlistFixture(10, 10, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Status: models.WaitlistStatusWaiting},
	})

	_, err := svc.Promote(context.Background(), "w1")
	require.Error(t, err)
	assert.Empty(t, enroller.created)
	assert.Empty(t, store.closed)
}

func TestPromoteRejectsClosedEntry(t *testing.T) {
	svc, _, _ := newWaitlistFixture(10, 0, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 0, Status: models.WaitlistStatusEnrolled},
	})

	_, err := svc.Promote(context.Background(), "w1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProcessAllPromotesInPositionOrderUntilFull(t *testing.T) {
	svc, store, enroller := newWaitlistFixture(5, 3, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Status: models.WaitlistStatusWaiting},
		{ID: "w2", CourseID: "course-1", TraineeID: "t2", Position: 2, Status: models.WaitlistStatusWaiting},
		{ID: "w3", CourseID: "course-1", TraineeID: "t3", Position: 3, Status: models.WaitlistStatusWaiting},
	})

	result, err := svc.ProcessAll(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, result.Promoted)
	assert.Equal(t, 1, result.RemainingOpen)
	assert.Len(t, enroller.created, 2)
	assert.Equal(t, models.WaitlistStatusEnrolled, store.closed["w1"])
	assert.Equal(t, models.WaitlistStatusEnrolled, store.closed["w2"])
	_, w3Closed := store.closed["w3"]
	assert.False(t, w3Closed)
}

func TestProcessAllEmptyListIsNoOp(t *testing.T) {
	svc, _, enroller := newWaitlistFixture(5, 0, nil)

	result, err := svc.ProcessAll(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Empty(t, result.Promoted)
	assert.Equal(t, 0, result.RemainingOpen)
	assert.Empty(t, enroller.created)
}

func TestNotifyStampsWaitingEntryOnce(t *testing.T) {
	notifiedAt := time.Now().Add(-time.Hour)
	svc, store, _ := newWaitlistFixture(5, 0, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Status: models.WaitlistStatusWaiting},
		{ID: "w2", CourseID: "course-1", TraineeID: "t2", Position: 2, Status: models.WaitlistStatusNotified, NotifiedAt: &notifiedAt},
	})

	require.NoError(t, svc.Notify(context.Background(), "w1"))
	_, stamped := store.notified["w1"]
	assert.True(t, stamped)

	err := svc.Notify(context.Background(), "w2")
	require.Error(t, err)
}

func TestExpireStaleClosesLapsedNotifications(t *testing.T) {
	stale := time.Now().UTC().Add(-72 * time.Hour)
	fresh := time.Now().UTC().Add(-time.Hour)
	svc, store, enroller := newWaitlistFixture(5, 0, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Status: models.WaitlistStatusNotified, NotifiedAt: &stale},
		{ID: "w2", CourseID: "course-1", TraineeID: "t2", Position: 2, Status: models.WaitlistStatusNotified, NotifiedAt: &fresh},
	})

	expired, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, models.WaitlistStatusExpired, store.closed["w1"])
	_, w2Closed := store.closed["w2"]
	assert.False(t, w2Closed)
	require.Len(t, enroller.events, 1)
	assert.Equal(t, models.HistoryExpired, enroller.events[0].Action)
}

func TestRemoveClosesEntry(t *testing.T) {
	svc, store, _ := newWaitlistFixture(5, 0, []models.WaitlistEntry{
		{ID: "w1", CourseID: "course-1", TraineeID: "t1", Position: 1, Status: models.WaitlistStatusWaiting},
	})

	require.NoError(t, svc.Remove(context.Background(), "w1"))
	assert.Equal(t, models.WaitlistStatusExpired, store.closed["w1"])
}
