package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

type draftRepository interface {
	Get(ctx context.Context, id string) (*models.Draft, error)
	Save(ctx context.Context, draft *models.Draft) error
	Delete(ctx context.Context, id string) error
}

type draftCourseCreator interface {
	Create(ctx context.Context, req CreateCourseRequest) (*models.CourseDetail, error)
}

type draftInstructorCreator interface {
	Create(ctx context.Context, courseID string, req InstructorRequest) (*models.Instructor, error)
}

// StartDraftRequest opens a new wizard session.
type StartDraftRequest struct {
	Kind string `json:"kind" validate:"required,oneof=STANDARD OFFLINE"`
}

// DraftStepRequest merges partial form state into the draft. Fields left
// empty keep their previous answers.
type DraftStepRequest struct {
	Payload models.DraftPayload `json:"payload"`
}

// DraftService owns the multi-step course creation wizard. Drafts live in
// Redis and disappear on their TTL; submit is the only step that touches
// the database.
type DraftService struct {
	drafts      draftRepository
	courses     draftCourseCreator
	instructors draftInstructorCreator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDraftService constructs DraftService. metrics may be nil.
func NewDraftService(drafts draftRepository, courses draftCourseCreator, instructors draftInstructorCreator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DraftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		drafts:      drafts,
		courses:     courses,
		instructors: instructors,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// lookup reads a draft and feeds the hit/miss ratio that approximates how
// often operators resume wizards within the TTL.
func (s *DraftService) lookup(ctx context.Context, id string) (*models.Draft, error) {
	draft, err := s.drafts.Get(ctx, id)
	s.metrics.RecordDraftLookup(err == nil)
	return draft, err
}

// Start opens a wizard session at step 1.
func (s *DraftService) Start(ctx context.Context, userID string, req StartDraftRequest) (*models.Draft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}
	now := time.Now().UTC()
	draft := &models.Draft{
		ID:          uuid.NewString(),
		Kind:        models.DraftKind(req.Kind),
		CurrentStep: 1,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Get loads a live wizard session.
func (s *DraftService) Get(ctx context.Context, id string) (*models.Draft, error) {
	draft, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// UpdateStep merges form state into the draft without moving steps.
func (s *DraftService) UpdateStep(ctx context.Context, id string, req DraftStepRequest) (*models.Draft, error) {
	draft, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	mergePayload(&draft.Payload, req.Payload)
	draft.UpdatedAt = time.Now().UTC()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Next merges the submitted state and advances one step. Advancing past
// step 1 requires the catalog selection; the final step never advances
// further, it submits.
func (s *DraftService) Next(ctx context.Context, id string, req DraftStepRequest) (*models.Draft, error) {
	draft, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	mergePayload(&draft.Payload, req.Payload)
	if draft.CurrentStep == 1 && (draft.Payload.SeriesID == "" || draft.Payload.LevelID == "") {
		return nil, appErrors.Clone(appErrors.ErrDraftStep, "series and level must be selected before continuing")
	}
	if draft.CurrentStep < draft.Kind.StepCount() {
		draft.CurrentStep++
	}
	draft.UpdatedAt = time.Now().UTC()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Prev steps back, never below step 1. Answers are kept.
func (s *DraftService) Prev(ctx context.Context, id string) (*models.Draft, error) {
	draft, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStep > 1 {
		draft.CurrentStep--
	}
	draft.UpdatedAt = time.Now().UTC()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Submit validates the accumulated state and creates the offering. Only
// allowed from the final step; the draft is deleted after a successful
// create so a double-submit cannot create two courses.
func (s *DraftService) Submit(ctx context.Context, id string) (*models.CourseDetail, error) {
	draft, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStep != draft.Kind.StepCount() {
		return nil, appErrors.Clone(appErrors.ErrDraftStep, "wizard must reach the final step before submit")
	}
	if err := s.validateSubmission(ctx, draft); err != nil {
		return nil, err
	}

	delivery := string(models.DeliveryOnline)
	if draft.Kind == models.DraftKindOffline {
		delivery = string(models.DeliveryOffline)
	}
	course, err := s.courses.Create(ctx, CreateCourseRequest{
		SeriesID:      draft.Payload.SeriesID,
		LevelID:       draft.Payload.LevelID,
		Year:          draft.Payload.Year,
		SessionNumber: draft.Payload.SessionNumber,
		Delivery:      delivery,
		Title:         draft.Payload.Title,
		Description:   draft.Payload.Description,
		Location:      draft.Payload.Location,
		StartDate:     draft.Payload.StartDate,
		TotalDays:     draft.Payload.TotalDays,
		MaxSeats:      draft.Payload.MaxSeats,
	})
	if err != nil {
		return nil, err
	}

	for _, instructor := range draft.Payload.Instructors {
		if _, err := s.instructors.Create(ctx, course.ID, InstructorRequest{
			Name:           instructor.Name,
			Specialization: instructor.Specialization,
			Email:          instructor.Email,
			Phone:          instructor.Phone,
		}); err != nil {
			s.logger.Sugar().Warnw("failed to attach wizard instructor", "course_id", course.ID, "name", instructor.Name, "error", err)
		}
	}

	if err := s.drafts.Delete(ctx, id); err != nil {
		s.logger.Sugar().Warnw("failed to delete submitted draft", "draft_id", id, "error", err)
	}
	s.logger.Sugar().Infow("wizard submitted", "draft_id", id, "course_id", course.ID)
	return course, nil
}

// Cancel discards a wizard session.
func (s *DraftService) Cancel(ctx context.Context, id string) error {
	if _, err := s.lookup(ctx, id); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, id)
}

func (s *DraftService) validateSubmission(ctx context.Context, draft *models.Draft) error {
	p := draft.Payload
	if p.SeriesID == "" || p.LevelID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "series and level are required")
	}
	if p.Year == 0 || p.Title == "" || p.StartDate == "" {
		return appErrors.Clone(appErrors.ErrValidation, "year, title and start_date are required")
	}
	if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	if draft.Kind == models.DraftKindOffline && len(p.Instructors) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "offline courses need at least one instructor")
	}
	return nil
}

// mergePayload overlays answered fields onto the accumulated state. Zero
// values are "not answered" and never clear earlier input.
func mergePayload(dst *models.DraftPayload, src models.DraftPayload) {
	if src.SeriesID != "" {
		dst.SeriesID = src.SeriesID
	}
	if src.LevelID != "" {
		dst.LevelID = src.LevelID
	}
	if src.Year != 0 {
		dst.Year = src.Year
	}
	if src.SessionNumber != 0 {
		dst.SessionNumber = src.SessionNumber
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
	if src.StartDate != "" {
		dst.StartDate = src.StartDate
	}
	if src.EndDate != "" {
		dst.EndDate = src.EndDate
	}
	if src.EndDateAuto != nil {
		dst.EndDateAuto = src.EndDateAuto
	}
	if src.TotalDays != 0 {
		dst.TotalDays = src.TotalDays
	}
	if src.MaxSeats != 0 {
		dst.MaxSeats = src.MaxSeats
	}
	if len(src.Instructors) > 0 {
		dst.Instructors = src.Instructors
	}
}
