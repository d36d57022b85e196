package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ListCodes(ctx context.Context) ([]string, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
	Delete(ctx context.Context, id string) error
}

type catalogReader interface {
	ListSeries(ctx context.Context) ([]models.SeriesWithLevels, error)
	FindSeries(ctx context.Context, id string) (*models.CourseSeries, error)
	FindLevel(ctx context.Context, id string) (*models.CourseLevel, error)
}

type schedulePlanner interface {
	ReplaceDays(ctx context.Context, courseID string, days []models.ScheduleDayDetail) error
}

// CreateCourseRequest describes offering creation. SessionNumber zero means
// "use the next available number".
type CreateCourseRequest struct {
	SeriesID      string `json:"series_id" validate:"required"`
	LevelID       string `json:"level_id" validate:"required"`
	Year          int    `json:"year" validate:"required,min=2000,max=2100"`
	SessionNumber int    `json:"session_number" validate:"omitempty,min=1"`
	Delivery      string `json:"delivery" validate:"required,oneof=ONLINE OFFLINE"`
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	StartDate     string `json:"start_date" validate:"required,datetime=2006-01-02"`
	TotalDays     int    `json:"total_days" validate:"omitempty,min=1"`
	MaxSeats      int    `json:"max_seats" validate:"omitempty,min=1"`
}

// UpdateCourseRequest carries mutable offering fields. A manual EndDate
// turns the auto end-date calculation off.
type UpdateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EndDate     string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MaxSeats    int    `json:"max_seats" validate:"omitempty,min=1"`
}

// CodeSuggestion is the next-available code preview for the wizard.
type CodeSuggestion struct {
	SessionNumber int    `json:"session_number"`
	Code          string `json:"code"`
}

// CourseService orchestrates offering workflows.
type CourseService struct {
	courses         courseRepository
	catalog         catalogReader
	schedules       schedulePlanner
	validator       *validator.Validate
	logger          *zap.Logger
	defaultMaxSeats int
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepository, catalog catalogReader, schedules schedulePlanner, defaultMaxSeats int, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMaxSeats <= 0 {
		defaultMaxSeats = 30
	}
	return &CourseService{
		courses:         courses,
		catalog:         catalog,
		schedules:       schedules,
		validator:       validate,
		logger:          logger,
		defaultMaxSeats: defaultMaxSeats,
	}
}

// ListCatalog returns all series with their levels.
func (s *CourseService) ListCatalog(ctx context.Context) ([]models.SeriesWithLevels, error) {
	series, err := s.catalog.ListSeries(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list catalog")
	}
	return series, nil
}

// List returns offerings with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// Get returns one offering with seat counts.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, err := s.courses.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return detail, nil
}

// SuggestCode previews the next session number and code for a
// (series, level, year) selection.
func (s *CourseService) SuggestCode(ctx context.Context, seriesID, levelID string, year int) (*CodeSuggestion, error) {
	series, level, err := s.loadCatalogPair(ctx, seriesID, levelID)
	if err != nil {
		return nil, err
	}
	codes, err := s.courses.ListCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing codes")
	}
	next := SuggestNextSessionNumber(codes, year, series.Code, level.Code)
	return &CodeSuggestion{
		SessionNumber: next,
		Code:          GenerateCourseCode(year, series.Code, level.Code, next),
	}, nil
}

// Create registers a new offering. The generated code must be unique; a
// clash is reported as a recoverable validation conflict, never a panic.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	series, level, err := s.loadCatalogPair(ctx, req.SeriesID, req.LevelID)
	if err != nil {
		return nil, err
	}

	codes, err := s.courses.ListCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing codes")
	}

	sessionNumber := req.SessionNumber
	if sessionNumber == 0 {
		sessionNumber = SuggestNextSessionNumber(codes, req.Year, series.Code, level.Code)
	}
	code := GenerateCourseCode(req.Year, series.Code, level.Code, sessionNumber)
	if IsDuplicateCode(code, codes) {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "course code "+code+" already exists")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}

	totalDays := req.TotalDays
	if totalDays == 0 {
		totalDays = level.DefaultDurationDays
	}
	if totalDays <= 0 {
		totalDays = 1
	}
	maxSeats := req.MaxSeats
	if maxSeats == 0 {
		maxSeats = level.DefaultCapacity
	}
	if maxSeats <= 0 {
		maxSeats = s.defaultMaxSeats
	}

	course := &models.Course{
		Code:          code,
		SeriesID:      req.SeriesID,
		LevelID:       req.LevelID,
		Year:          req.Year,
		SessionNumber: sessionNumber,
		Delivery:      models.CourseDelivery(req.Delivery),
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		StartDate:     startDate,
		EndDate:       PlanEndDate(startDate, totalDays),
		EndDateAuto:   true,
		MaxSeats:      maxSeats,
		Status:        models.CourseStatusDraft,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	if course.Delivery == models.DeliveryOffline {
		planned := PlanDays(startDate, totalDays)
		days := make([]models.ScheduleDayDetail, len(planned))
		for i, day := range planned {
			days[i] = models.ScheduleDayDetail{
				ScheduleDay: models.ScheduleDay{CourseID: course.ID, DayNumber: day.DayNumber, Date: day.Date},
				Sessions:    day.Sessions,
			}
		}
		if err := s.schedules.ReplaceDays(ctx, course.ID, days); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to plan schedule")
		}
	}

	s.logger.Sugar().Infow("course created", "course_id", course.ID, "code", course.Code)
	return s.Get(ctx, course.ID)
}

// Update applies mutable field edits. Setting EndDate manually disables
// the auto end-date recomputation until it is explicitly re-enabled.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.Location != "" {
		course.Location = req.Location
	}
	if req.MaxSeats > 0 {
		course.MaxSeats = req.MaxSeats
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
		}
		if endDate.Before(course.StartDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date cannot precede start_date")
		}
		course.EndDate = endDate
		course.EndDateAuto = false
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return s.Get(ctx, id)
}

// UpdateStatus transitions the offering lifecycle.
func (s *CourseService) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) (*models.CourseDetail, error) {
	switch status {
	case models.CourseStatusOpen, models.CourseStatusInProgress, models.CourseStatusCompleted, models.CourseStatusCancelled:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid course status")
	}
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.courses.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	return s.Get(ctx, id)
}

// Delete removes a draft offering. Published offerings are cancelled, not
// deleted, so enrollment history survives.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusDraft {
		return appErrors.Clone(appErrors.ErrPrecondition, "only draft courses can be deleted")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) loadCatalogPair(ctx context.Context, seriesID, levelID string) (*models.CourseSeries, *models.CourseLevel, error) {
	series, err := s.catalog.FindSeries(ctx, seriesID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	level, err := s.catalog.FindLevel(ctx, levelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	if level.SeriesID != series.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "level does not belong to series")
	}
	return series, level, nil
}
