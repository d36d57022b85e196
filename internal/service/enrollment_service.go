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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, courseID, traineeID string) (bool, error)
	CountActive(ctx context.Context, courseID string) (int, error)
	Stats(ctx context.Context, courseID string) (*models.EnrollmentStats, error)
	RecentByCourse(ctx context.Context, courseID string, limit int) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	CreateBatch(ctx context.Context, enrollments []models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, droppedAt *time.Time, reason string) error
	InsertEvent(ctx context.Context, event *models.EnrollmentEvent) error
	ListEventsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentEvent, error)
}

type waitlistAppender interface {
	AppendBatch(ctx context.Context, entries []*models.WaitlistEntry) error
	ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error)
	FirstOpen(ctx context.Context, courseID string) (*models.WaitlistEntry, error)
	Close(ctx context.Context, id string, status models.WaitlistStatus) error
}

type traineeReader interface {
	Search(ctx context.Context, filter models.TraineeFilter) ([]models.Trainee, int, error)
	FindByID(ctx context.Context, id string) (*models.Trainee, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Trainee, error)
}

type courseSeatReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// BulkEnrollRequest enrolls a set of trainees at once. Trainees beyond
// capacity go to the waiting list unless SkipWaitlist is set.
type BulkEnrollRequest struct {
	TraineeIDs   []string `json:"trainee_ids" validate:"required,min=1,dive,required"`
	Priority     string   `json:"priority" validate:"omitempty,oneof=NORMAL HIGH URGENT"`
	SkipWaitlist bool     `json:"skip_waitlist"`
}

// BulkEnrollItem is the per-trainee outcome of a bulk enrollment.
type BulkEnrollItem struct {
	TraineeID string                   `json:"trainee_id"`
	Outcome   models.EnrollmentOutcome `json:"outcome"`
	Position  int                      `json:"position,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
}

// BulkEnrollResult reports a bulk enrollment with the authoritative seat
// count observed after the operation.
type BulkEnrollResult struct {
	Items           []BulkEnrollItem `json:"items"`
	EnrolledCount   int              `json:"enrolled_count"`
	WaitlistedCount int              `json:"waitlisted_count"`
	FailedCount     int              `json:"failed_count"`
	CurrentActive   int              `json:"current_active"`
	AvailableSeats  int              `json:"available_seats"`
}

// BulkUnenrollRequest drops several enrollments in one operation.
type BulkUnenrollRequest struct {
	EnrollmentIDs []string `json:"enrollment_ids" validate:"required,min=1,dive,required"`
	Reason        string   `json:"reason"`
}

// BulkUnenrollItem is one per-enrollment result of a bulk drop.
type BulkUnenrollItem struct {
	EnrollmentID string `json:"enrollment_id"`
	Dropped      bool   `json:"dropped"`
	Reason       string `json:"reason,omitempty"`
}

// EnrollmentService coordinates seats, enrollments, and waiting-list
// handoff for one course at a time.
type EnrollmentService struct {
	enrollments enrollmentRepository
	waitlist    waitlistAppender
	trainees    traineeReader
	courses     courseSeatReader
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. metrics may be nil.
func NewEnrollmentService(enrollments enrollmentRepository, waitlist waitlistAppender, trainees traineeReader, courses courseSeatReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		waitlist:    waitlist,
		trainees:    trainees,
		courses:     courses,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments matching the filter with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// SearchTrainees finds enrollable trainees, excluding anyone already active
// or waiting on the given course.
func (s *EnrollmentService) SearchTrainees(ctx context.Context, filter models.TraineeFilter) ([]models.Trainee, *models.Pagination, error) {
	start := time.Now()
	trainees, total, err := s.trainees.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search trainees")
	}
	s.metrics.ObserveDBQuery("trainee_search", time.Since(start))
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return trainees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// BulkEnroll splits the requested trainees into enrolled and waitlisted by
// the seat count read from storage at execution time. The split is computed
// server-side; whatever seat count the client saw is ignored.
func (s *EnrollmentService) BulkEnroll(ctx context.Context, courseID string, req BulkEnrollRequest) (*BulkEnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status == models.CourseStatusCompleted || course.Status == models.CourseStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPrecondition, "course is not accepting enrollments")
	}

	priority := models.EnrollmentPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityNormal
	}

	result := &BulkEnrollResult{}
	eligible := make([]string, 0, len(req.TraineeIDs))
	seen := make(map[string]bool, len(req.TraineeIDs))
	for _, traineeID := range req.TraineeIDs {
		if seen[traineeID] {
			result.Items = append(result.Items, BulkEnrollItem{TraineeID: traineeID, Outcome: models.OutcomeFailed, Reason: "duplicate trainee in request"})
			continue
		}
		seen[traineeID] = true
		if _, err := s.trainees.FindByID(ctx, traineeID); err != nil {
			if err == sql.ErrNoRows {
				result.Items = append(result.Items, BulkEnrollItem{TraineeID: traineeID, Outcome: models.OutcomeFailed, Reason: "trainee not found"})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
		}
		enrolled, err := s.enrollments.ExistsActive(ctx, courseID, traineeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if enrolled {
			result.Items = append(result.Items, BulkEnrollItem{TraineeID: traineeID, Outcome: models.OutcomeFailed, Reason: appErrors.ErrAlreadyEnrolled.Message})
			continue
		}
		eligible = append(eligible, traineeID)
	}

	current, err := s.enrollments.CountActive(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	allocation := Allocate(course.MaxSeats, current, eligible)

	if len(allocation.Enrolled) > 0 {
		batch := make([]models.Enrollment, len(allocation.Enrolled))
		for i, traineeID := range allocation.Enrolled {
			batch[i] = models.Enrollment{CourseID: courseID, TraineeID: traineeID, Priority: priority}
		}
		if err := s.enrollments.CreateBatch(ctx, batch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll trainees")
		}
		for _, traineeID := range allocation.Enrolled {
			result.Items = append(result.Items, BulkEnrollItem{TraineeID: traineeID, Outcome: models.OutcomeEnrolled})
			s.recordEvent(ctx, courseID, traineeID, models.HistoryEnrolled, "enrolled via bulk operation")
			s.metrics.CountEnrollment()
		}
	}

	if len(allocation.Waitlisted) > 0 {
		if req.SkipWaitlist {
			for _, traineeID := range allocation.Waitlisted {
				result.Items = append(result.Items, BulkEnrollItem{TraineeID: traineeID, Outcome: models.OutcomeFailed, Reason: "course is at capacity"})
			}
		} else {
			entries := make([]*models.WaitlistEntry, len(allocation.Waitlisted))
			for i, traineeID := range allocation.Waitlisted {
				entries[i] = &models.WaitlistEntry{CourseID: courseID, TraineeID: traineeID, Priority: priority}
			}
			if err := s.waitlist.AppendBatch(ctx, entries); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append to waiting list")
			}
			for _, entry := range entries {
				result.Items = append(result.Items, BulkEnrollItem{TraineeID: entry.TraineeID, Outcome: models.OutcomeWaitlisted, Position: entry.Position})
				s.recordEvent(ctx, courseID, entry.TraineeID, models.HistoryWaitlisted, "added to waiting list")
			}
		}
	}

	for _, item := range result.Items {
		switch item.Outcome {
		case models.OutcomeEnrolled:
			result.EnrolledCount++
		case models.OutcomeWaitlisted:
			result.WaitlistedCount++
		default:
			result.FailedCount++
		}
	}

	active, err := s.enrollments.CountActive(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	result.CurrentActive = active
	result.AvailableSeats = course.MaxSeats - active
	if result.AvailableSeats < 0 {
		result.AvailableSeats = 0
	}
	s.logger.Sugar().Infow("bulk enrollment processed",
		"course_id", courseID,
		"enrolled", result.EnrolledCount,
		"waitlisted", result.WaitlistedCount,
		"failed", result.FailedCount)
	return result, nil
}

// Unenroll drops one active enrollment.
func (s *EnrollmentService) Unenroll(ctx context.Context, enrollmentID, reason string) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrPrecondition, "enrollment is not active")
	}
	now := time.Now().UTC()
	if err := s.enrollments.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusDropped, &now, reason); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	s.recordEvent(ctx, enrollment.CourseID, enrollment.TraineeID, models.HistoryDropped, reason)
	return nil
}

// BulkUnenroll drops several enrollments, reporting a per-item outcome.
// Already inactive or missing enrollments fail individually without
// aborting the rest of the batch.
func (s *EnrollmentService) BulkUnenroll(ctx context.Context, req BulkUnenrollRequest) ([]BulkUnenrollItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unenroll payload")
	}
	items := make([]BulkUnenrollItem, 0, len(req.EnrollmentIDs))
	for _, id := range req.EnrollmentIDs {
		if err := s.Unenroll(ctx, id, req.Reason); err != nil {
			items = append(items, BulkUnenrollItem{EnrollmentID: id, Dropped: false, Reason: appErrors.FromError(err).Message})
			continue
		}
		items = append(items, BulkUnenrollItem{EnrollmentID: id, Dropped: true})
	}
	return items, nil
}

// Complete marks an active enrollment finished.
func (s *EnrollmentService) Complete(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrPrecondition, "enrollment is not active")
	}
	if err := s.enrollments.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusCompleted, nil, ""); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
	}
	s.recordEvent(ctx, enrollment.CourseID, enrollment.TraineeID, models.HistoryCompleted, "")
	return nil
}

// Summary returns the course occupancy dashboard: stats, recent
// enrollments, and the open waiting list.
func (s *EnrollmentService) Summary(ctx context.Context, courseID string) (*models.EnrollmentSummary, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	start := time.Now()
	stats, err := s.enrollments.Stats(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment stats")
	}
	s.metrics.ObserveDBQuery("enrollment_stats", time.Since(start))
	stats.MaxSeats = course.MaxSeats
	stats.AvailableSeats = course.MaxSeats - stats.CurrentActive
	if stats.AvailableSeats < 0 {
		stats.AvailableSeats = 0
	}
	recent, err := s.enrollments.RecentByCourse(ctx, courseID, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent enrollments")
	}
	waiting, err := s.waitlist.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waiting list")
	}
	stats.WaitingCount = len(waiting)
	return &models.EnrollmentSummary{Stats: *stats, RecentEnrollments: recent, WaitingList: waiting}, nil
}

// History returns the append-only enrollment event log for a course.
func (s *EnrollmentService) History(ctx context.Context, courseID string) ([]models.EnrollmentEvent, error) {
	events, err := s.enrollments.ListEventsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}
	return events, nil
}

// recordEvent appends to the history log. A failed append is logged but
// never fails the enrollment operation it trails.
func (s *EnrollmentService) recordEvent(ctx context.Context, courseID, traineeID, action, detail string) {
	event := models.EnrollmentEvent{CourseID: courseID, TraineeID: traineeID, Action: action, Detail: detail}
	if err := s.enrollments.InsertEvent(ctx, &event); err != nil {
		s.logger.Sugar().Warnw("failed to record enrollment event", "course_id", courseID, "action", action, "error", err)
	}
}
