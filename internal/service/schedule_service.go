package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/export"
)

type scheduleRepository interface {
	ListDays(ctx context.Context, courseID string) ([]models.ScheduleDayDetail, error)
	FindDay(ctx context.Context, dayID string) (*models.ScheduleDayDetail, error)
	ReplaceDays(ctx context.Context, courseID string, days []models.ScheduleDayDetail) error
	FindSubSession(ctx context.Context, id string) (*models.SubSession, error)
	CreateSubSession(ctx context.Context, session *models.SubSession) error
	UpdateSubSession(ctx context.Context, session *models.SubSession) error
	DeleteSubSession(ctx context.Context, id string) error
}

type courseScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
}

type instructorRoster interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Instructor, error)
}

// SubSessionRequest carries sub-session create and update payloads.
type SubSessionRequest struct {
	StartTime     string  `json:"start_time" validate:"required,len=5"`
	EndTime       string  `json:"end_time" validate:"required,len=5"`
	Subject       string  `json:"subject"`
	InstructorID  *string `json:"instructor_id"`
	AssistantName string  `json:"assistant_name"`
	OperatorName  string  `json:"operator_name"`
	Room          string  `json:"room"`
	Note          string  `json:"note"`
}

// ScheduleImportRowError reports one rejected CSV row.
type ScheduleImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ScheduleImportResult summarizes a CSV import.
type ScheduleImportResult struct {
	DaysImported     int                      `json:"days_imported"`
	SessionsImported int                      `json:"sessions_imported"`
	Errors           []ScheduleImportRowError `json:"errors,omitempty"`
}

// Exported schedule column order. Matches the operations team's shared
// spreadsheet so round-tripping needs no manual rework.
var scheduleCSVHeaders = []string{"일차", "날짜", "시작시간", "종료시간", "교육주제", "강사명", "보조강사", "운영담당자", "강의실", "비고"}

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ScheduleService manages day plans and their sub-sessions.
type ScheduleService struct {
	schedules   scheduleRepository
	courses     courseScheduleRepository
	instructors instructorRoster
	csvExporter *export.CSVExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(schedules scheduleRepository, courses courseScheduleRepository, instructors instructorRoster, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules:   schedules,
		courses:     courses,
		instructors: instructors,
		csvExporter: export.NewCSVExporter(true),
		validator:   validate,
		logger:      logger,
	}
}

// ListDays returns the full day plan for a course.
func (s *ScheduleService) ListDays(ctx context.Context, courseID string) ([]models.ScheduleDayDetail, error) {
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	days, err := s.schedules.ListDays(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule days")
	}
	return days, nil
}

// Replan regenerates the business-day plan from the course start date and
// recomputes the end date when it is still in auto mode.
func (s *ScheduleService) Replan(ctx context.Context, courseID string, totalDays int) ([]models.ScheduleDayDetail, error) {
	if totalDays < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total_days must be at least 1")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	planned := PlanDays(course.StartDate, totalDays)
	days := make([]models.ScheduleDayDetail, len(planned))
	for i, day := range planned {
		days[i] = models.ScheduleDayDetail{
			ScheduleDay: models.ScheduleDay{CourseID: courseID, DayNumber: day.DayNumber, Date: day.Date},
			Sessions:    day.Sessions,
		}
	}
	if err := s.schedules.ReplaceDays(ctx, courseID, days); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedule days")
	}
	if course.EndDateAuto {
		course.EndDate = PlanEndDate(course.StartDate, totalDays)
		if err := s.courses.Update(ctx, course); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update end date")
		}
	}
	return s.ListDays(ctx, courseID)
}

// ResetAutoEndDate re-enables auto mode and recomputes the end date from
// the current day plan.
func (s *ScheduleService) ResetAutoEndDate(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	days, err := s.schedules.ListDays(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule days")
	}
	course.EndDateAuto = true
	if len(days) > 0 {
		course.EndDate = days[len(days)-1].Date
	} else {
		course.EndDate = course.StartDate
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update end date")
	}
	return course, nil
}

// AddSubSession appends a slot to a day, rejecting overlaps.
func (s *ScheduleService) AddSubSession(ctx context.Context, dayID string, req SubSessionRequest) (*models.SubSession, error) {
	if err := s.validateSubSession(req); err != nil {
		return nil, err
	}
	day, err := s.schedules.FindDay(ctx, dayID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule day")
	}

	session := models.SubSession{
		DayID:         dayID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Subject:       req.Subject,
		InstructorID:  req.InstructorID,
		AssistantName: req.AssistantName,
		OperatorName:  req.OperatorName,
		Room:          req.Room,
		Note:          req.Note,
	}
	if session.Subject == "" {
		session.Subject = models.PlaceholderSubject
	}
	if SessionsOverlap(append(day.Sessions, session)) {
		return nil, appErrors.Clone(appErrors.ErrScheduleOverlap, "sub-session overlaps an existing slot")
	}
	if err := s.schedules.CreateSubSession(ctx, &session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sub-session")
	}
	return &session, nil
}

// UpdateSubSession edits a slot in place, revalidating overlaps against its
// siblings.
func (s *ScheduleService) UpdateSubSession(ctx context.Context, sessionID string, req SubSessionRequest) (*models.SubSession, error) {
	if err := s.validateSubSession(req); err != nil {
		return nil, err
	}
	current, err := s.schedules.FindSubSession(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sub-session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sub-session")
	}
	day, err := s.schedules.FindDay(ctx, current.DayID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule day")
	}

	current.StartTime = req.StartTime
	current.EndTime = req.EndTime
	current.Subject = req.Subject
	current.InstructorID = req.InstructorID
	current.AssistantName = req.AssistantName
	current.OperatorName = req.OperatorName
	current.Room = req.Room
	current.Note = req.Note
	if current.Subject == "" {
		current.Subject = models.PlaceholderSubject
	}

	siblings := make([]models.SubSession, 0, len(day.Sessions))
	for _, sess := range day.Sessions {
		if sess.ID != sessionID {
			siblings = append(siblings, sess)
		}
	}
	if SessionsOverlap(append(siblings, *current)) {
		return nil, appErrors.Clone(appErrors.ErrScheduleOverlap, "sub-session overlaps an existing slot")
	}
	if err := s.schedules.UpdateSubSession(ctx, current); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sub-session")
	}
	return current, nil
}

// RemoveSubSession deletes one slot.
func (s *ScheduleService) RemoveSubSession(ctx context.Context, sessionID string) error {
	if _, err := s.schedules.FindSubSession(ctx, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "sub-session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sub-session")
	}
	if err := s.schedules.DeleteSubSession(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sub-session")
	}
	return nil
}

// ExportCSV renders the day plan in the operations spreadsheet layout,
// UTF-8 BOM included so Excel opens the Korean headers correctly.
func (s *ScheduleService) ExportCSV(ctx context.Context, courseID string) ([]byte, error) {
	days, err := s.ListDays(ctx, courseID)
	if err != nil {
		return nil, err
	}
	instructorNames, err := s.instructorNamesByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: scheduleCSVHeaders}
	for _, day := range days {
		for _, sess := range day.Sessions {
			instructorName := ""
			if sess.InstructorID != nil {
				instructorName = instructorNames[*sess.InstructorID]
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"일차":    strconv.Itoa(day.DayNumber),
				"날짜":    day.Date.Format("2006-01-02"),
				"시작시간":  sess.StartTime,
				"종료시간":  sess.EndTime,
				"교육주제":  sess.Subject,
				"강사명":   instructorName,
				"보조강사":  sess.AssistantName,
				"운영담당자": sess.OperatorName,
				"강의실":   sess.Room,
				"비고":    sess.Note,
			})
		}
	}
	return s.csvExporter.Render(dataset)
}

// ImportCSV replaces the whole day plan from an uploaded spreadsheet. Rows
// that fail validation are reported; a single bad row rejects the import so
// a half-written plan never lands.
func (s *ScheduleService) ImportCSV(ctx context.Context, courseID string, payload []byte) (*ScheduleImportResult, error) {
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(export.StripBOM(payload)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed CSV payload")
	}
	if len(records) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV has no data rows")
	}
	if len(records[0]) < len(scheduleCSVHeaders) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("expected %d columns, got %d", len(scheduleCSVHeaders), len(records[0])))
	}

	instructorIDs, err := s.instructorIDsByName(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dayMap := make(map[int]*models.ScheduleDayDetail)
	result := &ScheduleImportResult{}

	for i, record := range records[1:] {
		line := i + 2
		if len(record) < len(scheduleCSVHeaders) {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "missing columns"})
			continue
		}
		dayNumber, err := strconv.Atoi(record[0])
		if err != nil || dayNumber < 1 {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "일차 must be a positive integer"})
			continue
		}
		date, err := time.Parse("2006-01-02", record[1])
		if err != nil {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "날짜 must be YYYY-MM-DD"})
			continue
		}
		if !timeOfDayPattern.MatchString(record[2]) || !timeOfDayPattern.MatchString(record[3]) {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "시작시간/종료시간 must be HH:MM"})
			continue
		}
		if record[2] >= record[3] {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "시작시간 must precede 종료시간"})
			continue
		}

		var instructorID *string
		if name := record[5]; name != "" {
			id, ok := instructorIDs[name]
			if !ok {
				result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: "강사명 " + name + " is not on the course roster"})
				continue
			}
			instructorID = &id
		}

		subject := record[4]
		if subject == "" {
			subject = models.PlaceholderSubject
		}
		day, ok := dayMap[dayNumber]
		if !ok {
			day = &models.ScheduleDayDetail{
				ScheduleDay: models.ScheduleDay{CourseID: courseID, DayNumber: dayNumber, Date: date},
			}
			dayMap[dayNumber] = day
		} else if !day.Date.Equal(date) {
			result.Errors = append(result.Errors, ScheduleImportRowError{Line: line, Message: fmt.Sprintf("일차 %d maps to two different dates", dayNumber)})
			continue
		}
		day.Sessions = append(day.Sessions, models.SubSession{
			StartTime:     record[2],
			EndTime:       record[3],
			Subject:       subject,
			InstructorID:  instructorID,
			AssistantName: record[6],
			OperatorName:  record[7],
			Room:          record[8],
			Note:          record[9],
		})
	}

	days := make([]models.ScheduleDayDetail, 0, len(dayMap))
	for _, day := range dayMap {
		if SessionsOverlap(day.Sessions) {
			result.Errors = append(result.Errors, ScheduleImportRowError{
				Line:    0,
				Message: fmt.Sprintf("일차 %d has overlapping sub-sessions", day.DayNumber),
			})
			continue
		}
		days = append(days, *day)
	}
	if len(result.Errors) > 0 {
		return result, appErrors.Clone(appErrors.ErrValidation, "CSV contains invalid rows")
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })

	if err := s.schedules.ReplaceDays(ctx, courseID, days); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedule days")
	}
	result.DaysImported = len(days)
	for _, day := range days {
		result.SessionsImported += len(day.Sessions)
	}
	s.logger.Sugar().Infow("schedule imported", "course_id", courseID, "days", result.DaysImported, "sessions", result.SessionsImported)
	return result, nil
}

func (s *ScheduleService) validateSubSession(req SubSessionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sub-session payload")
	}
	if !timeOfDayPattern.MatchString(req.StartTime) || !timeOfDayPattern.MatchString(req.EndTime) {
		return appErrors.Clone(appErrors.ErrValidation, "times must be HH:MM")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}
	return nil
}

func (s *ScheduleService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *ScheduleService) instructorNamesByID(ctx context.Context, courseID string) (map[string]string, error) {
	roster, err := s.instructors.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	names := make(map[string]string, len(roster))
	for _, instructor := range roster {
		names[instructor.ID] = instructor.Name
	}
	return names, nil
}

func (s *ScheduleService) instructorIDsByName(ctx context.Context, courseID string) (map[string]string, error) {
	roster, err := s.instructors.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	ids := make(map[string]string, len(roster))
	for _, instructor := range roster {
		ids[instructor.Name] = instructor.ID
	}
	return ids, nil
}
