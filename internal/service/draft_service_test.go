package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

type stubDraftStore struct {
	drafts  map[string]models.Draft
	deleted []string
}

func (m *stubDraftStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	if d, ok := m.drafts[id]; ok {
		return &d, nil
	}
	return nil, appErrors.Clone(appErrors.ErrDraftExpired, "wizard draft expired or missing")
}

func (m *stubDraftStore) Save(ctx context.Context, draft *models.Draft) error {
	if m.drafts == nil {
		m.drafts = make(map[string]models.Draft)
	}
	m.drafts[draft.ID] = *draft
	return nil
}

func (m *stubDraftStore) Delete(ctx context.Context, id string) error {
	delete(m.drafts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubCourseCreator struct {
	created []CreateCourseRequest
	fail    error
}

func (m *stubCourseCreator) Create(ctx context.Context, req CreateCourseRequest) (*models.CourseDetail, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.created = append(m.created, req)
	return &models.CourseDetail{Course: models.Course{ID: "course-new", Code: "2025-LEBS3-01"}}, nil
}

type stubInstructorCreator struct {
	created []InstructorRequest
}

func (m *stubInstructorCreator) Create(ctx context.Context, courseID string, req InstructorRequest) (*models.Instructor, error) {
	m.created = append(m.created, req)
	return &models.Instructor{ID: "inst-" + req.Name, CourseID: courseID, Name: req.Name}, nil
}

func newDraftFixture() (*DraftService, *stubDraftStore, *stubCourseCreator, *stubInstructorCreator) {
	store := &stubDraftStore{}
	courses := &stubCourseCreator{}
	instructors := &stubInstructorCreator{}
	svc := NewDraftService(store, courses, instructors, nil, nil, nil)
	return svc, store, courses, instructors
}

func TestStartOpensAtStepOne(t *testing.T) {
	svc, _, _, _ := newDraftFixture()

	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "OFFLINE"})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CurrentStep)
	assert.Equal(t, models.DraftKindOffline, draft.Kind)
	assert.Equal(t, 5, draft.Kind.StepCount())
	assert.NotEmpty(t, draft.ID)
}

func TestNextRequiresCatalogSelection(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	_, err = svc.Next(context.Background(), draft.ID, DraftStepRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDraftStep.Code, appErr.Code)

	advanced, err := svc.Next(context.Background(), draft.ID, DraftStepRequest{
		Payload: models.DraftPayload{SeriesID: "series-1", LevelID: "level-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, advanced.CurrentStep)
}

func TestNextStopsAtFinalStep(t *testing.T) {
	svc, store, _, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	saved := store.drafts[draft.ID]
	saved.CurrentStep = 4
	saved.Payload = models.DraftPayload{SeriesID: "series-1", LevelID: "level-1"}
	store.drafts[draft.ID] = saved

	result, err := svc.Next(context.Background(), draft.ID, DraftStepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.CurrentStep)
}

func TestPrevKeepsAnswersAndFloorsAtOne(t *testing.T) {
	svc, store, _, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	saved := store.drafts[draft.ID]
	saved.CurrentStep = 2
	saved.Payload = models.DraftPayload{SeriesID: "series-1", LevelID: "level-1", Title: "BS Level 3"}
	store.drafts[draft.ID] = saved

	back, err := svc.Prev(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, back.CurrentStep)
	assert.Equal(t, "BS Level 3", back.Payload.Title)

	floor, err := svc.Prev(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, floor.CurrentStep)
}

func TestUpdateStepMergesWithoutClearing(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	_, err = svc.UpdateStep(context.Background(), draft.ID, DraftStepRequest{
		Payload: models.DraftPayload{Title: "BS Level 3", MaxSeats: 25},
	})
	require.NoError(t, err)

	merged, err := svc.UpdateStep(context.Background(), draft.ID, DraftStepRequest{
		Payload: models.DraftPayload{Location: "Seoul HQ"},
	})
	require.NoError(t, err)
	assert.Equal(t, "BS Level 3", merged.Payload.Title)
	assert.Equal(t, 25, merged.Payload.MaxSeats)
	assert.Equal(t, "Seoul HQ", merged.Payload.Location)
}

func TestSubmitOnlyFromFinalStep(t *testing.T) {
	svc, store, courses, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Empty(t, courses.created)

	saved := store.drafts[draft.ID]
	saved.CurrentStep = 4
	saved.Payload = models.DraftPayload{
		SeriesID:  "series-1",
		LevelID:   "level-1",
		Year:      2025,
		Title:     "BS Level 3",
		StartDate: "2025-03-03",
	}
	store.drafts[draft.ID] = saved

	course, err := svc.Submit(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "course-new", course.ID)
	require.Len(t, courses.created, 1)
	assert.Equal(t, "ONLINE", courses.created[0].Delivery)
	assert.Contains(t, store.deleted, draft.ID)
}

func TestSubmitOfflineRequiresInstructors(t *testing.T) {
	svc, store, courses, instructors := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "OFFLINE"})
	require.NoError(t, err)

	saved := store.drafts[draft.ID]
	saved.CurrentStep = 5
	saved.Payload = models.DraftPayload{
		SeriesID:  "series-1",
		LevelID:   "level-1",
		Year:      2025,
		Title:     "BS Level 3 intensive",
		StartDate: "2025-03-03",
	}
	store.drafts[draft.ID] = saved

	_, err = svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Empty(t, courses.created)

	saved.Payload.Instructors = []models.Instructor{{Name: "이영희", Specialization: "BS field coaching"}}
	store.drafts[draft.ID] = saved

	course, err := svc.Submit(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "course-new", course.ID)
	require.Len(t, instructors.created, 1)
	assert.Equal(t, "이영희", instructors.created[0].Name)
	assert.Equal(t, "OFFLINE", courses.created[0].Delivery)
}

func TestSubmitDuplicateCodeSurfacesConflict(t *testing.T) {
	svc, store, courses, _ := newDraftFixture()
	courses.fail = appErrors.Clone(appErrors.ErrDuplicateCode, "course code 2025-LEBS3-01 already exists")

	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	saved := store.drafts[draft.ID]
	saved.CurrentStep = 4
	saved.Payload = models.DraftPayload{
		SeriesID:  "series-1",
		LevelID:   "level-1",
		Year:      2025,
		Title:     "BS Level 3",
		StartDate: "2025-03-03",
	}
	store.drafts[draft.ID] = saved

	_, err = svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateCode.Code, appErrors.FromError(err).Code)
	_, stillThere := store.drafts[draft.ID]
	assert.True(t, stillThere, "draft survives a failed submit for correction")
}

func TestCancelDiscardsDraft(t *testing.T) {
	svc, store, _, _ := newDraftFixture()
	draft, err := svc.Start(context.Background(), "admin", StartDraftRequest{Kind: "STANDARD"})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), draft.ID))
	_, err = svc.Get(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Contains(t, store.deleted, draft.ID)
}
