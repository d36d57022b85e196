package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// WaitlistRepository handles course waiting lists. Positions are kept
// 1-based and contiguous per course; every mutation that removes or moves
// an entry renumbers inside the same transaction.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository constructs the repository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

const waitlistDetailColumns = `w.id, w.course_id, w.trainee_id, w.position, w.priority, w.status,
        w.added_at, w.notified_at,
        t.full_name AS trainee_name, t.department AS trainee_department`

// ListByCourse returns open entries for a course in position order.
func (r *WaitlistRepository) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries w
        JOIN trainees t ON t.id = w.trainee_id
        WHERE w.course_id = $1 AND w.status IN ('WAITING','NOTIFIED')
        ORDER BY w.position`, waitlistDetailColumns)
	var entries []models.WaitlistDetail
	if err := r.db.SelectContext(ctx, &entries, query, courseID); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}

// FindByID returns one entry.
func (r *WaitlistRepository) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	const query = `SELECT id, course_id, trainee_id, position, priority, status, added_at, notified_at
        FROM waitlist_entries WHERE id = $1`
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountOpen returns the number of waiting or notified entries.
func (r *WaitlistRepository) CountOpen(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM waitlist_entries WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	return count, nil
}

// Append adds a trainee at the next contiguous position.
func (r *WaitlistRepository) Append(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.AppendBatch(ctx, []*models.WaitlistEntry{entry})
}

// AppendBatch adds trainees at the next contiguous positions, in order, in
// one transaction.
func (r *WaitlistRepository) AppendBatch(ctx context.Context, entries []*models.WaitlistEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin waitlist append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist_entries WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED')`,
		entries[0].CourseID); err != nil {
		return fmt.Errorf("next waitlist position: %w", err)
	}

	const query = `INSERT INTO waitlist_entries (id, course_id, trainee_id, position, priority, status, added_at, notified_at)
        VALUES (:id, :course_id, :trainee_id, :position, :priority, :status, :added_at, :notified_at)`
	for i, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.AddedAt.IsZero() {
			entry.AddedAt = time.Now().UTC()
		}
		if entry.Status == "" {
			entry.Status = models.WaitlistStatusWaiting
		}
		if entry.Priority == "" {
			entry.Priority = models.PriorityNormal
		}
		entry.Position = next + i
		if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
			return fmt.Errorf("append waitlist entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit waitlist append: %w", err)
	}
	return nil
}

// Close finalises an entry (enrolled or expired) and renumbers the
// remaining open entries to stay contiguous.
func (r *WaitlistRepository) Close(ctx context.Context, id string, status models.WaitlistStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin waitlist close: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var entry models.WaitlistEntry
	if err := tx.GetContext(ctx, &entry,
		`SELECT id, course_id, trainee_id, position, priority, status, added_at, notified_at
        FROM waitlist_entries WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("lock waitlist entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = $2, position = 0 WHERE id = $1`, id, status); err != nil {
		return fmt.Errorf("close waitlist entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET position = position - 1
        WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED') AND position > $2`,
		entry.CourseID, entry.Position); err != nil {
		return fmt.Errorf("renumber waitlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit waitlist close: %w", err)
	}
	return nil
}

// Reorder moves an open entry to newPosition and renumbers the entries in
// between, keeping positions contiguous from 1.
func (r *WaitlistRepository) Reorder(ctx context.Context, id string, newPosition int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin waitlist reorder: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var entry models.WaitlistEntry
	if err := tx.GetContext(ctx, &entry,
		`SELECT id, course_id, trainee_id, position, priority, status, added_at, notified_at
        FROM waitlist_entries WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("lock waitlist entry: %w", err)
	}

	var open int
	if err := tx.GetContext(ctx, &open,
		`SELECT COUNT(*) FROM waitlist_entries WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED')`,
		entry.CourseID); err != nil {
		return fmt.Errorf("count open entries: %w", err)
	}
	if newPosition < 1 {
		newPosition = 1
	}
	if newPosition > open {
		newPosition = open
	}
	if newPosition == entry.Position {
		return tx.Commit()
	}

	if newPosition < entry.Position {
		if _, err := tx.ExecContext(ctx,
			`UPDATE waitlist_entries SET position = position + 1
            WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED') AND position >= $2 AND position < $3`,
			entry.CourseID, newPosition, entry.Position); err != nil {
			return fmt.Errorf("shift waitlist down: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE waitlist_entries SET position = position - 1
            WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED') AND position > $2 AND position <= $3`,
			entry.CourseID, entry.Position, newPosition); err != nil {
			return fmt.Errorf("shift waitlist up: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET position = $2 WHERE id = $1`, id, newPosition); err != nil {
		return fmt.Errorf("move waitlist entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit waitlist reorder: %w", err)
	}
	return nil
}

// MarkNotified transitions a waiting entry to notified.
func (r *WaitlistRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE waitlist_entries SET status = $2, notified_at = $3 WHERE id = $1 AND status = $4`
	if _, err := r.db.ExecContext(ctx, query, id, models.WaitlistStatusNotified, at, models.WaitlistStatusWaiting); err != nil {
		return fmt.Errorf("mark waitlist notified: %w", err)
	}
	return nil
}

// FirstOpen returns the open entry with the lowest position, or ErrNoRows.
func (r *WaitlistRepository) FirstOpen(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	const query = `SELECT id, course_id, trainee_id, position, priority, status, added_at, notified_at
        FROM waitlist_entries WHERE course_id = $1 AND status IN ('WAITING','NOTIFIED')
        ORDER BY position LIMIT 1`
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, courseID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListNotifiedBefore returns notified entries whose notification is older
// than the cutoff, for the expiry sweep.
func (r *WaitlistRepository) ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error) {
	const query = `SELECT id, course_id, trainee_id, position, priority, status, added_at, notified_at
        FROM waitlist_entries WHERE status = $1 AND notified_at < $2`
	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, models.WaitlistStatusNotified, cutoff); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list stale notifications: %w", err)
	}
	return entries, nil
}
