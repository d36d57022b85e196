package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments and the
// append-only enrollment history.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.course_id, e.trainee_id, e.priority, e.status, e.enrolled_at,
        e.dropped_at, e.drop_reason,
        t.full_name AS trainee_name, t.department AS trainee_department,
        c.code AS course_code, c.title AS course_title`

const enrollmentDetailJoins = `FROM enrollments e
JOIN trainees t ON t.id = e.trainee_id
JOIN courses c ON c.id = e.course_id`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TraineeID != "" {
		conditions = append(conditions, fmt.Sprintf("e.trainee_id = $%d", len(args)+1))
		args = append(args, filter.TraineeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"trainee_name": "t.full_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY %s %s LIMIT %d OFFSET %d",
		enrollmentDetailColumns, enrollmentDetailJoins, clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", enrollmentDetailJoins, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, course_id, trainee_id, priority, status, enrolled_at, dropped_at, drop_reason
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.id = $1", enrollmentDetailColumns, enrollmentDetailJoins)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks whether the trainee already holds an active
// enrollment in the course.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, courseID, traineeID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE course_id = $1 AND trainee_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, traineeID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CountActive returns the authoritative active enrollment count.
func (r *EnrollmentRepository) CountActive(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// Stats aggregates occupancy counters for one course.
func (r *EnrollmentRepository) Stats(ctx context.Context, courseID string) (*models.EnrollmentStats, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE e.status = 'ACTIVE') AS current_active,
        COUNT(*) FILTER (WHERE e.status = 'COMPLETED') AS completed,
        COUNT(*) FILTER (WHERE e.status = 'DROPPED') AS dropped
        FROM enrollments e WHERE e.course_id = $1`
	var row struct {
		CurrentActive int `db:"current_active"`
		Completed     int `db:"completed"`
		Dropped       int `db:"dropped"`
	}
	if err := r.db.GetContext(ctx, &row, query, courseID); err != nil {
		return nil, fmt.Errorf("enrollment stats: %w", err)
	}
	return &models.EnrollmentStats{
		CurrentActive: row.CurrentActive,
		Completed:     row.Completed,
		Dropped:       row.Dropped,
	}, nil
}

// RecentByCourse returns the latest enrollments for the summary view.
func (r *EnrollmentRepository) RecentByCourse(ctx context.Context, courseID string, limit int) ([]models.EnrollmentDetail, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s %s WHERE e.course_id = $1 ORDER BY e.enrolled_at DESC LIMIT %d",
		enrollmentDetailColumns, enrollmentDetailJoins, limit)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("recent enrollments: %w", err)
	}
	return enrollments, nil
}

// Create persists a single enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	prepareEnrollment(enrollment)
	const query = `INSERT INTO enrollments (id, course_id, trainee_id, priority, status, enrolled_at, dropped_at, drop_reason)
        VALUES (:id, :course_id, :trainee_id, :priority, :status, :enrolled_at, :dropped_at, :drop_reason)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// CreateBatch persists a set of enrollments in one transaction.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, enrollments []models.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk enroll: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO enrollments (id, course_id, trainee_id, priority, status, enrolled_at, dropped_at, drop_reason)
        VALUES (:id, :course_id, :trainee_id, :priority, :status, :enrolled_at, :dropped_at, :drop_reason)`
	for i := range enrollments {
		prepareEnrollment(&enrollments[i])
		if _, err := tx.NamedExecContext(ctx, query, enrollments[i]); err != nil {
			return fmt.Errorf("bulk enroll trainee %s: %w", enrollments[i].TraineeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk enroll: %w", err)
	}
	return nil
}

func prepareEnrollment(enrollment *models.Enrollment) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	if enrollment.Priority == "" {
		enrollment.Priority = models.PriorityNormal
	}
}

// UpdateStatus updates status, timestamp and reason for an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, droppedAt *time.Time, reason string) error {
	const query = `UPDATE enrollments SET status = $2, dropped_at = $3, drop_reason = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, droppedAt, reason); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// InsertEvent appends one row to the enrollment history.
func (r *EnrollmentRepository) InsertEvent(ctx context.Context, event *models.EnrollmentEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollment_events (id, course_id, trainee_id, action, detail, occurred_at)
        VALUES (:id, :course_id, :trainee_id, :action, :detail, :occurred_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert enrollment event: %w", err)
	}
	return nil
}

// ListEventsByCourse returns the enrollment history newest first.
func (r *EnrollmentRepository) ListEventsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentEvent, error) {
	const query = `SELECT id, course_id, trainee_id, action, detail, occurred_at
        FROM enrollment_events WHERE course_id = $1 ORDER BY occurred_at DESC`
	var events []models.EnrollmentEvent
	if err := r.db.SelectContext(ctx, &events, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollment events: %w", err)
	}
	return events, nil
}
