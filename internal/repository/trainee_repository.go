package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// TraineeRepository handles the trainee roster.
type TraineeRepository struct {
	db *sqlx.DB
}

// NewTraineeRepository constructs the repository.
func NewTraineeRepository(db *sqlx.DB) *TraineeRepository {
	return &TraineeRepository{db: db}
}

// Search returns trainees matching the filter, optionally excluding those
// already actively enrolled or waitlisted in a course.
func (r *TraineeRepository) Search(ctx context.Context, filter models.TraineeFilter) ([]models.Trainee, int, error) {
	conditions := []string{"t.active = TRUE"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(t.full_name ILIKE $%d OR t.employee_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("t.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.ExcludeEnrolledInCourse != "" {
		conditions = append(conditions, fmt.Sprintf(
			`NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.trainee_id = t.id AND e.course_id = $%d AND e.status = 'ACTIVE')
            AND NOT EXISTS (SELECT 1 FROM waitlist_entries w WHERE w.trainee_id = t.id AND w.course_id = $%d AND w.status IN ('WAITING','NOTIFIED'))`,
			len(args)+1, len(args)+1))
		args = append(args, filter.ExcludeEnrolledInCourse)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"name":       "t.full_name",
		"department": "t.department",
		"created_at": "t.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "t.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT t.id, t.employee_no, t.full_name, t.department, t.company_id, t.email, t.active, t.created_at
        FROM trainees t%s ORDER BY %s %s LIMIT %d OFFSET %d`, clause, orderBy, order, size, offset)

	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search trainees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM trainees t%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count trainees: %w", err)
	}
	return trainees, total, nil
}

// FindByID returns a trainee by id.
func (r *TraineeRepository) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	const query = `SELECT id, employee_no, full_name, department, company_id, email, active, created_at
        FROM trainees WHERE id = $1`
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, query, id); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// ListByIDs returns the subset of requested trainees that exist.
func (r *TraineeRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Trainee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, employee_no, full_name, department, company_id, email, active, created_at
        FROM trainees WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build trainee lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query, args...); err != nil {
		return nil, fmt.Errorf("list trainees by ids: %w", err)
	}
	return trainees, nil
}
