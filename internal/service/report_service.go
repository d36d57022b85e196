package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/export"
	"github.com/bs-edu/bs-admin-api/pkg/jobs"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	SaveResult(ctx context.Context, id string, contentType string, result []byte) error
	MarkFailed(ctx context.Context, id string, message string) error
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type scoreExporter interface {
	Export(ctx context.Context, courseID string, round int, format models.ReportFormat) ([]byte, string, error)
}

type scheduleExporter interface {
	ExportCSV(ctx context.Context, courseID string) ([]byte, error)
}

type rosterReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

// CreateReportRequest queues one asynchronous report.
type CreateReportRequest struct {
	Type     string `json:"type" validate:"required,oneof=roster scores schedule"`
	CourseID string `json:"course_id" validate:"required"`
	Round    int    `json:"round" validate:"omitempty,min=1"`
	Format   string `json:"format" validate:"required,oneof=csv xlsx pdf"`
}

// ReportService queues report generation onto the background worker pool
// and serves finished artifacts.
type ReportService struct {
	reports      reportRepository
	scores       scoreExporter
	schedules    scheduleExporter
	enrollments  rosterReader
	metrics      *MetricsService
	queue        *jobs.Queue
	csvExporter  *export.CSVExporter
	xlsxExporter *export.XLSXExporter
	pdfExporter  *export.PDFExporter
	resultTTL    time.Duration
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReportService constructs ReportService. Call StartWorkers before
// queuing anything. metrics may be nil.
func NewReportService(reports reportRepository, scores scoreExporter, schedules scheduleExporter, enrollments rosterReader, metrics *MetricsService, queueCfg jobs.QueueConfig, resultTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultTTL <= 0 {
		resultTTL = 24 * time.Hour
	}
	s := &ReportService{
		reports:      reports,
		scores:       scores,
		schedules:    schedules,
		enrollments:  enrollments,
		metrics:      metrics,
		csvExporter:  export.NewCSVExporter(true),
		xlsxExporter: export.NewXLSXExporter(),
		pdfExporter:  export.NewPDFExporter(),
		resultTTL:    resultTTL,
		validator:    validate,
		logger:       logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("reports", s.process, queueCfg)
	return s
}

// StartWorkers launches the background worker pool.
func (s *ReportService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains and stops the pool.
func (s *ReportService) StopWorkers() {
	s.queue.Stop()
}

// Enqueue persists a job and hands it to the worker pool.
func (s *ReportService) Enqueue(ctx context.Context, userID string, req CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	job := &models.ReportJob{
		Type: models.ReportType(req.Type),
		Params: models.ReportJobParams{
			CourseID: req.CourseID,
			Round:    req.Round,
			Format:   models.ReportFormat(req.Format),
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type), Payload: job.Params}); err != nil {
		if markErr := s.reports.MarkFailed(ctx, job.ID, "queue rejected job"); markErr != nil {
			s.logger.Sugar().Warnw("failed to mark rejected report job", "job_id", job.ID, "error", markErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report queue is full")
	}
	return job, nil
}

// Status returns job metadata without the artifact body.
func (s *ReportService) Status(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	job.Result = nil
	return job, nil
}

// Download returns the finished artifact with its content type.
func (s *ReportService) Download(ctx context.Context, id string) ([]byte, string, error) {
	job, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished || job.ContentType == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPrecondition, "report is not finished")
	}
	return job.Result, *job.ContentType, nil
}

// PurgeExpired drops finished artifacts past their retention window.
// Intended to run from the scheduler.
func (s *ReportService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.reports.DeleteFinishedBefore(ctx, time.Now().UTC().Add(-s.resultTTL))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge expired reports")
	}
	return deleted, nil
}

// process runs on the worker pool.
func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	params, ok := job.Payload.(models.ReportJobParams)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := s.reports.MarkProcessing(ctx, job.ID); err != nil {
		return err
	}

	payload, contentType, err := s.render(ctx, models.ReportType(job.Type), params)
	if err != nil {
		if markErr := s.reports.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Sugar().Warnw("failed to mark failed report job", "job_id", job.ID, "error", markErr)
		}
		return err
	}
	if err := s.reports.SaveResult(ctx, job.ID, contentType, payload); err != nil {
		return err
	}
	s.metrics.CountReport()
	s.logger.Sugar().Infow("report generated", "job_id", job.ID, "type", job.Type, "bytes", len(payload))
	return nil
}

func (s *ReportService) render(ctx context.Context, reportType models.ReportType, params models.ReportJobParams) ([]byte, string, error) {
	switch reportType {
	case models.ReportTypeScores:
		return s.scores.Export(ctx, params.CourseID, params.Round, params.Format)
	case models.ReportTypeSchedule:
		payload, err := s.schedules.ExportCSV(ctx, params.CourseID)
		return payload, "text/csv; charset=utf-8", err
	case models.ReportTypeRoster:
		return s.renderRoster(ctx, params)
	default:
		return nil, "", fmt.Errorf("unsupported report type %q", reportType)
	}
}

func (s *ReportService) renderRoster(ctx context.Context, params models.ReportJobParams) ([]byte, string, error) {
	rows, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{CourseID: params.CourseID, PageSize: 10000})
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{Headers: []string{"Course Code", "Course Title", "Trainee", "Department", "Priority", "Status", "Enrolled At"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course Code":  row.CourseCode,
			"Course Title": row.CourseTitle,
			"Trainee":      row.TraineeName,
			"Department":   row.TraineeDepartment,
			"Priority":     string(row.Priority),
			"Status":       string(row.Status),
			"Enrolled At":  row.EnrolledAt.Format(time.RFC3339),
		})
	}

	switch params.Format {
	case models.ReportFormatCSV:
		payload, err := s.csvExporter.Render(dataset)
		return payload, "text/csv; charset=utf-8", err
	case models.ReportFormatXLSX:
		payload, err := s.xlsxExporter.Render(dataset, "Roster")
		return payload, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	case models.ReportFormatPDF:
		payload, err := s.pdfExporter.Render(dataset, "Enrollment roster ("+strconv.Itoa(len(rows))+" trainees)")
		return payload, "application/pdf", err
	default:
		return nil, "", fmt.Errorf("unsupported report format %q", params.Format)
	}
}
