package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/export"
)

type scoreRepository interface {
	ListByCourse(ctx context.Context, courseID string, round int) ([]models.ScoreDetail, error)
	Find(ctx context.Context, courseID, traineeID string, round int) (*models.Score, error)
	Upsert(ctx context.Context, score *models.Score) error
	BulkUpsert(ctx context.Context, scores []models.Score) error
	Weights(ctx context.Context, courseID string) (*models.ScoreWeights, error)
	SaveWeights(ctx context.Context, courseID string, weights models.ScoreWeights) error
}

type scoreCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type scoreLevelReader interface {
	FindLevel(ctx context.Context, id string) (*models.CourseLevel, error)
}

// ScoreEntry is one trainee's sub-scores for a round. Zero means "not yet
// reported" for a category; the verdict stays PENDING until every
// applicable category is in.
type ScoreEntry struct {
	TraineeID      string  `json:"trainee_id" validate:"required"`
	TheoryScore    float64 `json:"theory_score" validate:"min=0,max=100"`
	PracticalScore float64 `json:"practical_score" validate:"min=0,max=100"`
	BSActivity     float64 `json:"bs_activity_score" validate:"min=0,max=100"`
	AttitudeScore  float64 `json:"attitude_score" validate:"min=0,max=100"`
	Remarks        string  `json:"remarks"`
}

// BulkScoreRequest upserts scores for many trainees in one round.
type BulkScoreRequest struct {
	Round   int          `json:"round" validate:"required,min=1"`
	Entries []ScoreEntry `json:"entries" validate:"required,min=1,dive"`
}

// WeightsRequest replaces a course's category weights.
type WeightsRequest struct {
	Theory     float64 `json:"theory" validate:"min=0,max=1"`
	Practical  float64 `json:"practical" validate:"min=0,max=1"`
	BSActivity float64 `json:"bs_activity" validate:"min=0,max=1"`
	Attitude   float64 `json:"attitude" validate:"min=0,max=1"`
}

// Export column order fixed by the downstream HR reporting pipeline.
var scoreExportHeaders = []string{
	"Round", "Course ID", "Course Display Name", "Company ID", "Student Name",
	"Theory Score", "Practical Score", "BS Activity Score", "Attitude Score",
	"Pass/Fail", "Remarks",
}

// ScoreService computes weighted overall scores and verdicts.
type ScoreService struct {
	scores        scoreRepository
	courses       scoreCourseReader
	catalog       scoreLevelReader
	csvExporter   *export.CSVExporter
	xlsxExporter  *export.XLSXExporter
	pdfExporter   *export.PDFExporter
	passThreshold float64
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreRepository, courses scoreCourseReader, catalog scoreLevelReader, passThreshold float64, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	return &ScoreService{
		scores:        scores,
		courses:       courses,
		catalog:       catalog,
		csvExporter:   export.NewCSVExporter(true),
		xlsxExporter:  export.NewXLSXExporter(),
		pdfExporter:   export.NewPDFExporter(),
		passThreshold: passThreshold,
		validator:     validate,
		logger:        logger,
	}
}

// ListByCourse returns score rows for a course, optionally one round only.
func (s *ScoreService) ListByCourse(ctx context.Context, courseID string, round int) ([]models.ScoreDetail, error) {
	rows, err := s.scores.ListByCourse(ctx, courseID, round)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return rows, nil
}

// Upsert writes one trainee's round scores, rederiving the overall score
// and verdict server-side.
func (s *ScoreService) Upsert(ctx context.Context, courseID string, round int, entry ScoreEntry) (*models.Score, error) {
	if round < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "round must be at least 1")
	}
	if err := s.validator.Struct(entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	weights, basicTier, err := s.gradingContext(ctx, courseID)
	if err != nil {
		return nil, err
	}
	score := s.buildScore(courseID, round, entry, weights, basicTier)
	if err := s.scores.Upsert(ctx, &score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
	}
	return &score, nil
}

// BulkUpsert writes a whole round of scores in one transaction.
func (s *ScoreService) BulkUpsert(ctx context.Context, courseID string, req BulkScoreRequest) ([]models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	weights, basicTier, err := s.gradingContext(ctx, courseID)
	if err != nil {
		return nil, err
	}
	scores := make([]models.Score, len(req.Entries))
	for i, entry := range req.Entries {
		scores[i] = s.buildScore(courseID, req.Round, entry, weights, basicTier)
	}
	if err := s.scores.BulkUpsert(ctx, scores); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scores")
	}
	s.logger.Sugar().Infow("scores saved", "course_id", courseID, "round", req.Round, "count", len(scores))
	return scores, nil
}

// Weights returns the course's grading weights, falling back to the
// standard policy when none were customized.
func (s *ScoreService) Weights(ctx context.Context, courseID string) (*models.ScoreWeights, error) {
	weights, err := s.scores.Weights(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score weights")
	}
	return weights, nil
}

// SaveWeights replaces the course weights. The four weights must carry
// positive total mass; recomputation of stored rows happens lazily on the
// next upsert.
func (s *ScoreService) SaveWeights(ctx context.Context, courseID string, req WeightsRequest) (*models.ScoreWeights, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weights payload")
	}
	if req.Theory+req.Practical+req.BSActivity+req.Attitude <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weights must sum to a positive value")
	}
	weights := models.ScoreWeights{
		Theory:     req.Theory,
		Practical:  req.Practical,
		BSActivity: req.BSActivity,
		Attitude:   req.Attitude,
	}
	if err := s.scores.SaveWeights(ctx, courseID, weights); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score weights")
	}
	return &weights, nil
}

// Export renders the course score sheet in the requested format.
func (s *ScoreService) Export(ctx context.Context, courseID string, round int, format models.ReportFormat) ([]byte, string, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	rows, err := s.ListByCourse(ctx, courseID, round)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: scoreExportHeaders}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Round":               strconv.Itoa(row.Round),
			"Course ID":           row.CourseCode,
			"Course Display Name": row.CourseTitle,
			"Company ID":          row.CompanyID,
			"Student Name":        row.TraineeName,
			"Theory Score":        formatScore(row.TheoryScore),
			"Practical Score":     formatScore(row.PracticalScore),
			"BS Activity Score":   formatScore(row.BSActivity),
			"Attitude Score":      formatScore(row.AttitudeScore),
			"Pass/Fail":           string(row.PassFail),
			"Remarks":             row.Remarks,
		})
	}

	switch format {
	case models.ReportFormatCSV:
		payload, err := s.csvExporter.Render(dataset)
		return payload, "text/csv; charset=utf-8", err
	case models.ReportFormatXLSX:
		payload, err := s.xlsxExporter.Render(dataset, "Scores")
		return payload, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	case models.ReportFormatPDF:
		payload, err := s.pdfExporter.Render(dataset, course.Code+" score sheet")
		return payload, "application/pdf", err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// gradingContext resolves the weights and tier rule for a course.
func (s *ScoreService) gradingContext(ctx context.Context, courseID string) (models.ScoreWeights, bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ScoreWeights{}, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return models.ScoreWeights{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	level, err := s.catalog.FindLevel(ctx, course.LevelID)
	if err != nil {
		return models.ScoreWeights{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	weights, err := s.scores.Weights(ctx, courseID)
	if err != nil {
		return models.ScoreWeights{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score weights")
	}
	return *weights, level.Code == models.LevelTierBasic, nil
}

func (s *ScoreService) buildScore(courseID string, round int, entry ScoreEntry, weights models.ScoreWeights, basicTier bool) models.Score {
	score := models.Score{
		CourseID:       courseID,
		TraineeID:      entry.TraineeID,
		Round:          round,
		TheoryScore:    entry.TheoryScore,
		PracticalScore: entry.PracticalScore,
		BSActivity:     entry.BSActivity,
		AttitudeScore:  entry.AttitudeScore,
		Remarks:        entry.Remarks,
	}
	score.OverallScore = ComputeOverallScore(score, weights, basicTier)
	score.PassFail = s.deriveVerdict(score, basicTier)
	return score
}

// deriveVerdict returns PENDING until every applicable category has been
// reported, then applies the pass threshold.
func (s *ScoreService) deriveVerdict(score models.Score, basicTier bool) models.PassFail {
	if score.TheoryScore <= 0 || score.PracticalScore <= 0 || score.AttitudeScore <= 0 {
		return models.PassFailPending
	}
	if !basicTier && score.BSActivity <= 0 {
		return models.PassFailPending
	}
	return DerivePassFail(score.OverallScore, s.passThreshold)
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
