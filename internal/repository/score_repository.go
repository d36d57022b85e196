package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// ScoreRepository handles persistence of trainee score rows and per-course
// weight configuration.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const scoreDetailColumns = `sc.id, sc.course_id, sc.trainee_id, sc.round, sc.theory_score, sc.practical_score,
        sc.bs_activity_score, sc.attitude_score, sc.overall_score, sc.pass_fail, sc.remarks, sc.updated_at,
        t.full_name AS trainee_name, t.company_id AS company_id,
        c.code AS course_code, c.title AS course_title`

const scoreDetailJoins = `FROM scores sc
JOIN trainees t ON t.id = sc.trainee_id
JOIN courses c ON c.id = sc.course_id`

// ListByCourse returns score rows with trainee/course context, optionally
// restricted to one round.
func (r *ScoreRepository) ListByCourse(ctx context.Context, courseID string, round int) ([]models.ScoreDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.course_id = $1", scoreDetailColumns, scoreDetailJoins)
	args := []interface{}{courseID}
	if round > 0 {
		query += " AND sc.round = $2"
		args = append(args, round)
	}
	query += " ORDER BY sc.round, t.full_name"

	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// Find returns the score row for one (course, trainee, round).
func (r *ScoreRepository) Find(ctx context.Context, courseID, traineeID string, round int) (*models.Score, error) {
	const query = `SELECT id, course_id, trainee_id, round, theory_score, practical_score,
        bs_activity_score, attitude_score, overall_score, pass_fail, remarks, updated_at
        FROM scores WHERE course_id = $1 AND trainee_id = $2 AND round = $3`
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, courseID, traineeID, round); err != nil {
		return nil, err
	}
	return &score, nil
}

// Upsert inserts or replaces the score row keyed by (course, trainee, round).
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	prepareScore(score)
	const query = `INSERT INTO scores (id, course_id, trainee_id, round, theory_score, practical_score,
        bs_activity_score, attitude_score, overall_score, pass_fail, remarks, updated_at)
        VALUES (:id, :course_id, :trainee_id, :round, :theory_score, :practical_score,
        :bs_activity_score, :attitude_score, :overall_score, :pass_fail, :remarks, :updated_at)
        ON CONFLICT (course_id, trainee_id, round) DO UPDATE SET
        theory_score = EXCLUDED.theory_score, practical_score = EXCLUDED.practical_score,
        bs_activity_score = EXCLUDED.bs_activity_score, attitude_score = EXCLUDED.attitude_score,
        overall_score = EXCLUDED.overall_score, pass_fail = EXCLUDED.pass_fail,
        remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert writes a batch of score rows in one transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.Score) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk score upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO scores (id, course_id, trainee_id, round, theory_score, practical_score,
        bs_activity_score, attitude_score, overall_score, pass_fail, remarks, updated_at)
        VALUES (:id, :course_id, :trainee_id, :round, :theory_score, :practical_score,
        :bs_activity_score, :attitude_score, :overall_score, :pass_fail, :remarks, :updated_at)
        ON CONFLICT (course_id, trainee_id, round) DO UPDATE SET
        theory_score = EXCLUDED.theory_score, practical_score = EXCLUDED.practical_score,
        bs_activity_score = EXCLUDED.bs_activity_score, attitude_score = EXCLUDED.attitude_score,
        overall_score = EXCLUDED.overall_score, pass_fail = EXCLUDED.pass_fail,
        remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	for i := range scores {
		prepareScore(&scores[i])
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			return fmt.Errorf("bulk upsert score for %s: %w", scores[i].TraineeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk score upsert: %w", err)
	}
	return nil
}

func prepareScore(score *models.Score) {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	score.UpdatedAt = time.Now().UTC()
	if score.PassFail == "" {
		score.PassFail = models.PassFailPending
	}
}

// Weights returns the per-course weight configuration, or ErrNoRows when
// the course uses the defaults.
func (r *ScoreRepository) Weights(ctx context.Context, courseID string) (*models.ScoreWeights, error) {
	const query = `SELECT weight_theory, weight_practical, weight_bs_activity, weight_attitude
        FROM score_weights WHERE course_id = $1`
	var weights models.ScoreWeights
	if err := r.db.GetContext(ctx, &weights, query, courseID); err != nil {
		return nil, err
	}
	return &weights, nil
}

// SaveWeights stores a per-course override of the default weights.
func (r *ScoreRepository) SaveWeights(ctx context.Context, courseID string, weights models.ScoreWeights) error {
	const query = `INSERT INTO score_weights (course_id, weight_theory, weight_practical, weight_bs_activity, weight_attitude)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (course_id) DO UPDATE SET
        weight_theory = EXCLUDED.weight_theory, weight_practical = EXCLUDED.weight_practical,
        weight_bs_activity = EXCLUDED.weight_bs_activity, weight_attitude = EXCLUDED.weight_attitude`
	if _, err := r.db.ExecContext(ctx, query, courseID, weights.Theory, weights.Practical, weights.BSActivity, weights.Attitude); err != nil {
		return fmt.Errorf("save score weights: %w", err)
	}
	return nil
}
