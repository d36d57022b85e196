package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// ScheduleRepository handles persistence of schedule days and sub-sessions.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListDays returns the full schedule for a course, days and sub-sessions
// both in chronological order.
func (r *ScheduleRepository) ListDays(ctx context.Context, courseID string) ([]models.ScheduleDayDetail, error) {
	const dayQuery = `SELECT id, course_id, day_number, date FROM schedule_days
        WHERE course_id = $1 ORDER BY day_number`
	var days []models.ScheduleDay
	if err := r.db.SelectContext(ctx, &days, dayQuery, courseID); err != nil {
		return nil, fmt.Errorf("list schedule days: %w", err)
	}

	const sessionQuery = `SELECT ss.id, ss.day_id, ss.start_time, ss.end_time, ss.subject, ss.instructor_id,
        ss.assistant_name, ss.operator_name, ss.room, ss.note
        FROM sub_sessions ss
        JOIN schedule_days d ON d.id = ss.day_id
        WHERE d.course_id = $1 ORDER BY d.day_number, ss.start_time`
	var sessions []models.SubSession
	if err := r.db.SelectContext(ctx, &sessions, sessionQuery, courseID); err != nil {
		return nil, fmt.Errorf("list sub-sessions: %w", err)
	}

	byDay := make(map[string][]models.SubSession, len(days))
	for _, session := range sessions {
		byDay[session.DayID] = append(byDay[session.DayID], session)
	}

	result := make([]models.ScheduleDayDetail, 0, len(days))
	for _, day := range days {
		result = append(result, models.ScheduleDayDetail{ScheduleDay: day, Sessions: byDay[day.ID]})
	}
	return result, nil
}

// FindDay returns one day with its sub-sessions.
func (r *ScheduleRepository) FindDay(ctx context.Context, dayID string) (*models.ScheduleDayDetail, error) {
	const dayQuery = `SELECT id, course_id, day_number, date FROM schedule_days WHERE id = $1`
	var day models.ScheduleDay
	if err := r.db.GetContext(ctx, &day, dayQuery, dayID); err != nil {
		return nil, err
	}

	const sessionQuery = `SELECT id, day_id, start_time, end_time, subject, instructor_id,
        assistant_name, operator_name, room, note
        FROM sub_sessions WHERE day_id = $1 ORDER BY start_time`
	var sessions []models.SubSession
	if err := r.db.SelectContext(ctx, &sessions, sessionQuery, dayID); err != nil {
		return nil, fmt.Errorf("list day sub-sessions: %w", err)
	}
	return &models.ScheduleDayDetail{ScheduleDay: day, Sessions: sessions}, nil
}

// ReplaceDays atomically swaps a course's schedule for the given plan.
func (r *ScheduleRepository) ReplaceDays(ctx context.Context, courseID string, days []models.ScheduleDayDetail) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedule: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sub_sessions WHERE day_id IN (SELECT id FROM schedule_days WHERE course_id = $1)`, courseID); err != nil {
		return fmt.Errorf("clear sub-sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_days WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear schedule days: %w", err)
	}

	const dayInsert = `INSERT INTO schedule_days (id, course_id, day_number, date)
        VALUES (:id, :course_id, :day_number, :date)`
	const sessionInsert = `INSERT INTO sub_sessions (id, day_id, start_time, end_time, subject,
        instructor_id, assistant_name, operator_name, room, note)
        VALUES (:id, :day_id, :start_time, :end_time, :subject, :instructor_id, :assistant_name, :operator_name, :room, :note)`

	for i := range days {
		day := &days[i]
		if day.ID == "" {
			day.ID = uuid.NewString()
		}
		day.CourseID = courseID
		if _, err := tx.NamedExecContext(ctx, dayInsert, day.ScheduleDay); err != nil {
			return fmt.Errorf("insert schedule day %d: %w", day.DayNumber, err)
		}
		for j := range day.Sessions {
			session := &day.Sessions[j]
			if session.ID == "" {
				session.ID = uuid.NewString()
			}
			session.DayID = day.ID
			if _, err := tx.NamedExecContext(ctx, sessionInsert, session); err != nil {
				return fmt.Errorf("insert sub-session: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedule: %w", err)
	}
	return nil
}

// FindSubSession returns one sub-session by id.
func (r *ScheduleRepository) FindSubSession(ctx context.Context, id string) (*models.SubSession, error) {
	const query = `SELECT id, day_id, start_time, end_time, subject, instructor_id,
        assistant_name, operator_name, room, note FROM sub_sessions WHERE id = $1`
	var session models.SubSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSubSession adds a slot to an existing day.
func (r *ScheduleRepository) CreateSubSession(ctx context.Context, session *models.SubSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	const query = `INSERT INTO sub_sessions (id, day_id, start_time, end_time, subject,
        instructor_id, assistant_name, operator_name, room, note)
        VALUES (:id, :day_id, :start_time, :end_time, :subject, :instructor_id, :assistant_name, :operator_name, :room, :note)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create sub-session: %w", err)
	}
	return nil
}

// UpdateSubSession persists slot edits.
func (r *ScheduleRepository) UpdateSubSession(ctx context.Context, session *models.SubSession) error {
	const query = `UPDATE sub_sessions SET start_time = :start_time, end_time = :end_time, subject = :subject,
        instructor_id = :instructor_id, assistant_name = :assistant_name, operator_name = :operator_name,
        room = :room, note = :note WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update sub-session: %w", err)
	}
	return nil
}

// DeleteSubSession removes a slot.
func (r *ScheduleRepository) DeleteSubSession(ctx context.Context, id string) error {
	const query = `DELETE FROM sub_sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete sub-session: %w", err)
	}
	return nil
}
