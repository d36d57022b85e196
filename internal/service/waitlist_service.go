package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

type waitlistRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error)
	FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error)
	CountOpen(ctx context.Context, courseID string) (int, error)
	Close(ctx context.Context, id string, status models.WaitlistStatus) error
	Reorder(ctx context.Context, id string, newPosition int) error
	MarkNotified(ctx context.Context, id string, at time.Time) error
	FirstOpen(ctx context.Context, courseID string) (*models.WaitlistEntry, error)
	ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error)
}

type waitlistEnroller interface {
	CountActive(ctx context.Context, courseID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	InsertEvent(ctx context.Context, event *models.EnrollmentEvent) error
}

// PromotionResult reports the trainees moved off the waiting list by a
// process-all pass.
type PromotionResult struct {
	Promoted       []string `json:"promoted_trainee_ids"`
	RemainingOpen  int      `json:"remaining_open"`
	AvailableSeats int      `json:"available_seats"`
}

// WaitlistService manages waiting-list ordering and promotion into seats.
type WaitlistService struct {
	waitlist        waitlistRepository
	enrollments     waitlistEnroller
	courses         courseSeatReader
	metrics         *MetricsService
	notificationTTL time.Duration
	logger          *zap.Logger
}

// NewWaitlistService constructs WaitlistService. notificationTTL bounds how
// long a notified trainee may hold their spot before expiring. metrics may
// be nil.
func NewWaitlistService(waitlist waitlistRepository, enrollments waitlistEnroller, courses courseSeatReader, metrics *MetricsService, notificationTTL time.Duration, logger *zap.Logger) *WaitlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notificationTTL <= 0 {
		notificationTTL = 48 * time.Hour
	}
	return &WaitlistService{
		waitlist:        waitlist,
		enrollments:     enrollments,
		courses:         courses,
		metrics:         metrics,
		notificationTTL: notificationTTL,
		logger:          logger,
	}
}

// ListByCourse returns open waiting-list entries in position order.
func (s *WaitlistService) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error) {
	entries, err := s.waitlist.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waiting list")
	}
	return entries, nil
}

// Promote enrolls one waiting trainee immediately, subject to a live
// capacity check. Remaining entries shift up to keep positions contiguous.
func (s *WaitlistService) Promote(ctx context.Context, entryID string) (*models.Enrollment, error) {
	entry, err := s.loadOpenEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, entry.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	active, err := s.enrollments.CountActive(ctx, entry.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if active >= course.MaxSeats {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "no open seats to promote into")
	}

	enrollment := models.Enrollment{
		CourseID:  entry.CourseID,
		TraineeID: entry.TraineeID,
		Priority:  entry.Priority,
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll trainee")
	}
	if err := s.waitlist.Close(ctx, entryID, models.WaitlistStatusEnrolled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close waiting-list entry")
	}
	s.recordEvent(ctx, entry.CourseID, entry.TraineeID, models.HistoryPromoted, "promoted from waiting list")
	s.metrics.CountPromotion()
	s.logger.Sugar().Infow("waitlist entry promoted", "entry_id", entryID, "course_id", entry.CourseID)
	return &enrollment, nil
}

// ProcessAll promotes waiting trainees in position order until the course
// is full or the list runs out.
func (s *WaitlistService) ProcessAll(ctx context.Context, courseID string) (*PromotionResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	result := &PromotionResult{Promoted: []string{}}
	for {
		active, err := s.enrollments.CountActive(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		if active >= course.MaxSeats {
			result.AvailableSeats = 0
			break
		}
		result.AvailableSeats = course.MaxSeats - active

		entry, err := s.waitlist.FirstOpen(ctx, courseID)
		if err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read waiting list")
		}

		enrollment := models.Enrollment{CourseID: courseID, TraineeID: entry.TraineeID, Priority: entry.Priority}
		if err := s.enrollments.Create(ctx, &enrollment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll trainee")
		}
		if err := s.waitlist.Close(ctx, entry.ID, models.WaitlistStatusEnrolled); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close waiting-list entry")
		}
		s.recordEvent(ctx, courseID, entry.TraineeID, models.HistoryPromoted, "promoted by process-all")
		s.metrics.CountPromotion()
		result.Promoted = append(result.Promoted, entry.TraineeID)
	}

	remaining, err := s.waitlist.CountOpen(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count waiting list")
	}
	result.RemainingOpen = remaining
	s.logger.Sugar().Infow("waiting list processed", "course_id", courseID, "promoted", len(result.Promoted), "remaining", remaining)
	return result, nil
}

// Reorder moves an entry to a new 1-based position; out-of-range targets
// clamp to the list bounds.
func (s *WaitlistService) Reorder(ctx context.Context, entryID string, newPosition int) error {
	if newPosition < 1 {
		newPosition = 1
	}
	if _, err := s.loadOpenEntry(ctx, entryID); err != nil {
		return err
	}
	if err := s.waitlist.Reorder(ctx, entryID, newPosition); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder waiting list")
	}
	return nil
}

// Notify stamps an entry as contacted; the expiry sweep starts counting
// from this moment.
func (s *WaitlistService) Notify(ctx context.Context, entryID string) error {
	entry, err := s.loadOpenEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != models.WaitlistStatusWaiting {
		return appErrors.Clone(appErrors.ErrPrecondition, "entry has already been notified")
	}
	if err := s.waitlist.MarkNotified(ctx, entryID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark entry notified")
	}
	return nil
}

// Remove takes an entry off the list without enrolling; later entries
// shift up.
func (s *WaitlistService) Remove(ctx context.Context, entryID string) error {
	entry, err := s.loadOpenEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.waitlist.Close(ctx, entryID, models.WaitlistStatusExpired); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove waiting-list entry")
	}
	s.recordEvent(ctx, entry.CourseID, entry.TraineeID, models.HistoryRemoved, "removed from waiting list")
	return nil
}

// ExpireStale closes notified entries whose response window has lapsed.
// Intended to run from the scheduler; returns how many entries expired.
func (s *WaitlistService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.notificationTTL)
	entries, err := s.waitlist.ListNotifiedBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stale notifications")
	}
	expired := 0
	for _, entry := range entries {
		if err := s.waitlist.Close(ctx, entry.ID, models.WaitlistStatusExpired); err != nil {
			s.logger.Sugar().Warnw("failed to expire waiting-list entry", "entry_id", entry.ID, "error", err)
			continue
		}
		s.recordEvent(ctx, entry.CourseID, entry.TraineeID, models.HistoryExpired, "notification window lapsed")
		expired++
	}
	if expired > 0 {
		s.logger.Sugar().Infow("stale waiting-list entries expired", "count", expired)
	}
	return expired, nil
}

func (s *WaitlistService) loadOpenEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	entry, err := s.waitlist.FindByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "waiting-list entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waiting-list entry")
	}
	if entry.Status == models.WaitlistStatusEnrolled || entry.Status == models.WaitlistStatusExpired {
		return nil, appErrors.Clone(appErrors.ErrConflict, "waiting-list entry is already closed")
	}
	return entry, nil
}

func (s *WaitlistService) recordEvent(ctx context.Context, courseID, traineeID, action, detail string) {
	event := models.EnrollmentEvent{CourseID: courseID, TraineeID: traineeID, Action: action, Detail: detail}
	if err := s.enrollments.InsertEvent(ctx, &event); err != nil {
		s.logger.Sugar().Warnw("failed to record enrollment event", "course_id", courseID, "action", action, "error", err)
	}
}
