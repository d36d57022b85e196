package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
	"github.com/bs-edu/bs-admin-api/internal/service"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

type fakeCourseRepo struct {
	courses map[string]models.Course
	codes   []string
}

func (f *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	out := make([]models.CourseDetail, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, models.CourseDetail{Course: c})
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := f.courses[id]; ok {
		return &models.CourseDetail{Course: c}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) ListCodes(ctx context.Context) ([]string, error) { return f.codes, nil }

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "course-new"
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCourseRepo) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	c := f.courses[id]
	c.Status = status
	f.courses[id] = c
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	delete(f.courses, id)
	return nil
}

type fakeCatalog struct{}

func (fakeCatalog) ListSeries(ctx context.Context) ([]models.SeriesWithLevels, error) {
	return []models.SeriesWithLevels{{CourseSeries: models.CourseSeries{ID: "series-1", Code: "LEBS"}}}, nil
}

func (fakeCatalog) FindSeries(ctx context.Context, id string) (*models.CourseSeries, error) {
	if id != "series-1" {
		return nil, sql.ErrNoRows
	}
	return &models.CourseSeries{ID: "series-1", Code: "LEBS"}, nil
}

func (fakeCatalog) FindLevel(ctx context.Context, id string) (*models.CourseLevel, error) {
	if id != "level-1" {
		return nil, sql.ErrNoRows
	}
	return &models.CourseLevel{ID: "level-1", SeriesID: "series-1", Code: "3", DefaultDurationDays: 3, DefaultCapacity: 20}, nil
}

type fakePlanner struct{}

func (fakePlanner) ReplaceDays(ctx context.Context, courseID string, days []models.ScheduleDayDetail) error {
	return nil
}

func newCourseHandler(repo *fakeCourseRepo) *CourseHandler {
	svc := service.NewCourseService(repo, fakeCatalog{}, fakePlanner{}, 30, nil, nil)
	return NewCourseHandler(svc)
}

func TestCourseHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCourseRepo{courses: map[string]models.Course{}}
	handler := newCourseHandler(repo)

	body := `{"series_id":"series-1","level_id":"level-1","year":2025,"delivery":"ONLINE","title":"BS Level 3","start_date":"2025-03-03"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var created models.CourseDetail
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "2025-LEBS3-01", created.Code)
}

func TestCourseHandlerCreateDuplicateCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCourseRepo{courses: map[string]models.Course{}, codes: []string{"2025-LEBS3-01"}}
	handler := newCourseHandler(repo)

	body := `{"series_id":"series-1","level_id":"level-1","year":2025,"session_number":1,"delivery":"ONLINE","title":"BS Level 3","start_date":"2025-03-03"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_COURSE_CODE", envelope.Error.Code)
}

func TestCourseHandlerGetMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandler(&fakeCourseRepo{courses: map[string]models.Course{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/unknown", nil)
	c.Params = gin.Params{{Key: "id", Value: "unknown"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourseHandlerSuggestCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandler(&fakeCourseRepo{courses: map[string]models.Course{}, codes: []string{"2025-LEBS3-01", "2025-LEBS3-02"}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/suggest-code?seriesId=series-1&levelId=level-1&year=2025", nil)

	handler.SuggestCode(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2025-LEBS3-03")
}
