package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bs-edu/bs-admin-api/internal/models"
	"github.com/bs-edu/bs-admin-api/pkg/export"
)

type stubScheduleStore struct {
	days     []models.ScheduleDayDetail
	replaced [][]models.ScheduleDayDetail
	created  []models.SubSession
	updated  []models.SubSession
	deleted  []string
}

func (m *stubScheduleStore) ListDays(ctx context.Context, courseID string) ([]models.ScheduleDayDetail, error) {
	return m.days, nil
}

func (m *stubScheduleStore) FindDay(ctx context.Context, dayID string) (*models.ScheduleDayDetail, error) {
	for _, day := range m.days {
		if day.ID == dayID {
			return &day, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubScheduleStore) ReplaceDays(ctx context.Context, courseID string, days []models.ScheduleDayDetail) error {
	m.replaced = append(m.replaced, days)
	m.days = days
	return nil
}

func (m *stubScheduleStore) FindSubSession(ctx context.Context, id string) (*models.SubSession, error) {
	for _, day := range m.days {
		for _, sess := range day.Sessions {
			if sess.ID == id {
				return &sess, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubScheduleStore) CreateSubSession(ctx context.Context, session *models.SubSession) error {
	session.ID = "sess-new"
	m.created = append(m.created, *session)
	return nil
}

func (m *stubScheduleStore) UpdateSubSession(ctx context.Context, session *models.SubSession) error {
	m.updated = append(m.updated, *session)
	return nil
}

func (m *stubScheduleStore) DeleteSubSession(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type stubRoster struct {
	instructors []models.Instructor
}

func (m *stubRoster) ListByCourse(ctx context.Context, courseID string) ([]models.Instructor, error) {
	return m.instructors, nil
}

func newScheduleFixture(startDate time.Time, endDateAuto bool) (*ScheduleService, *stubScheduleStore, *stubCourseRepo) {
	schedules := &stubScheduleStore{}
	courses := &stubCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", StartDate: startDate, EndDateAuto: endDateAuto},
	}}
	roster := &stubRoster{instructors: []models.Instructor{
		{ID: "inst-1", CourseID: "course-1", Name: "이영희"},
	}}
	svc := NewScheduleService(schedules, courses, roster, nil, nil)
	return svc, schedules, courses
}

func TestReplanSkipsWeekendsAndUpdatesEndDate(t *testing.T) {
	// Friday start: day 2 lands on the following Monday.
	friday := time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)
	svc, schedules, courses := newScheduleFixture(friday, true)

	days, err := svc.Replan(context.Background(), "course-1", 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, friday, days[0].Date)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), days[1].Date)
	require.Len(t, days[0].Sessions, 2)
	assert.Equal(t, models.DefaultMorningStart, days[0].Sessions[0].StartTime)

	require.NotNil(t, courses.updated)
	assert.Equal(t, days[1].Date, courses.updated.EndDate)
	require.Len(t, schedules.replaced, 1)
}

func TestReplanLeavesManualEndDateAlone(t *testing.T) {
	friday := time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)
	svc, _, courses := newScheduleFixture(friday, false)

	_, err := svc.Replan(context.Background(), "course-1", 2)
	require.NoError(t, err)
	assert.Nil(t, courses.updated)
}

func TestResetAutoEndDateRecomputesFromPlan(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, false)
	schedules.days = []models.ScheduleDayDetail{
		{ScheduleDay: models.ScheduleDay{ID: "d1", CourseID: "course-1", DayNumber: 1, Date: start}},
		{ScheduleDay: models.ScheduleDay{ID: "d2", CourseID: "course-1", DayNumber: 2, Date: start.AddDate(0, 0, 1)}},
	}

	course, err := svc.ResetAutoEndDate(context.Background(), "course-1")
	require.NoError(t, err)
	assert.True(t, course.EndDateAuto)
	assert.Equal(t, start.AddDate(0, 0, 1), course.EndDate)
}

func TestAddSubSessionRejectsOverlap(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, true)
	schedules.days = []models.ScheduleDayDetail{
		{
			ScheduleDay: models.ScheduleDay{ID: "d1", CourseID: "course-1", DayNumber: 1, Date: start},
			Sessions: []models.SubSession{
				{ID: "s1", DayID: "d1", StartTime: "09:00", EndTime: "12:00", Subject: "안전 교육"},
			},
		},
	}

	_, err := svc.AddSubSession(context.Background(), "d1", SubSessionRequest{
		StartTime: "11:00", EndTime: "13:00",
	})
	require.Error(t, err)
	assert.Empty(t, schedules.created)

	created, err := svc.AddSubSession(context.Background(), "d1", SubSessionRequest{
		StartTime: "13:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderSubject, created.Subject)
}

func TestAddSubSessionValidatesTimes(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newScheduleFixture(start, true)

	_, err := svc.AddSubSession(context.Background(), "d1", SubSessionRequest{StartTime: "25:00", EndTime: "26:00"})
	require.Error(t, err)

	_, err = svc.AddSubSession(context.Background(), "d1", SubSessionRequest{StartTime: "14:00", EndTime: "13:00"})
	require.Error(t, err)
}

func TestExportCSVWritesKoreanHeadersWithBOM(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, true)
	instructorID := "inst-1"
	schedules.days = []models.ScheduleDayDetail{
		{
			ScheduleDay: models.ScheduleDay{ID: "d1", CourseID: "course-1", DayNumber: 1, Date: start},
			Sessions: []models.SubSession{
				{ID: "s1", DayID: "d1", StartTime: "09:00", EndTime: "12:00", Subject: "BS 현장 실습", InstructorID: &instructorID, Room: "301호"},
			},
		},
	}

	payload, err := svc.ExportCSV(context.Background(), "course-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(export.StripBOM(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"일차", "날짜", "시작시간", "종료시간", "교육주제", "강사명", "보조강사", "운영담당자", "강의실", "비고"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "2025-03-03", records[1][1])
	assert.Equal(t, "이영희", records[1][5])
	assert.Equal(t, "301호", records[1][8])
}

func TestImportCSVRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, true)
	instructorID := "inst-1"
	schedules.days = []models.ScheduleDayDetail{
		{
			ScheduleDay: models.ScheduleDay{ID: "d1", CourseID: "course-1", DayNumber: 1, Date: start},
			Sessions: []models.SubSession{
				{ID: "s1", DayID: "d1", StartTime: "09:00", EndTime: "12:00", Subject: "BS 현장 실습", InstructorID: &instructorID},
				{ID: "s2", DayID: "d1", StartTime: "13:00", EndTime: "17:00", Subject: "사례 발표"},
			},
		},
	}

	payload, err := svc.ExportCSV(context.Background(), "course-1")
	require.NoError(t, err)

	result, err := svc.ImportCSV(context.Background(), "course-1", payload)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DaysImported)
	assert.Equal(t, 2, result.SessionsImported)
	assert.Empty(t, result.Errors)

	imported := schedules.days
	require.Len(t, imported, 1)
	require.Len(t, imported[0].Sessions, 2)
	require.NotNil(t, imported[0].Sessions[0].InstructorID)
	assert.Equal(t, "inst-1", *imported[0].Sessions[0].InstructorID)
}

func TestImportCSVRejectsBadRows(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, true)

	csvBody := "일차,날짜,시작시간,종료시간,교육주제,강사명,보조강사,운영담당자,강의실,비고\n" +
		"1,2025-03-03,09:00,12:00,정상 행,,,,,\n" +
		"x,2025-03-03,09:00,12:00,일차 오류,,,,,\n" +
		"2,03/04/2025,09:00,12:00,날짜 오류,,,,,\n" +
		"3,2025-03-05,9am,12:00,시간 오류,,,,,\n" +
		"4,2025-03-06,09:00,12:00,미등록 강사,홍길동,,,,\n"

	result, err := svc.ImportCSV(context.Background(), "course-1", []byte(csvBody))
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Errors, 4)
	assert.Empty(t, schedules.replaced, "no partial plan is written")
}

func TestImportCSVRejectsOverlapWithinDay(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	svc, schedules, _ := newScheduleFixture(start, true)

	csvBody := "일차,날짜,시작시간,종료시간,교육주제,강사명,보조강사,운영담당자,강의실,비고\n" +
		"1,2025-03-03,09:00,12:00,오전,,,,,\n" +
		"1,2025-03-03,11:00,14:00,겹침,,,,,\n"

	result, err := svc.ImportCSV(context.Background(), "course-1", []byte(csvBody))
	require.Error(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Errors, 1)
	assert.Empty(t, schedules.replaced)
}
