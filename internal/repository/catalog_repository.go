package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bs-edu/bs-admin-api/internal/models"
)

// CatalogRepository handles the static course series/level catalog.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListSeries returns all series with their levels in display order.
func (r *CatalogRepository) ListSeries(ctx context.Context) ([]models.SeriesWithLevels, error) {
	const seriesQuery = `SELECT id, code, name, description, created_at, updated_at FROM course_series ORDER BY code`
	var series []models.CourseSeries
	if err := r.db.SelectContext(ctx, &series, seriesQuery); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	const levelQuery = `SELECT id, series_id, code, name, display_order, default_session_count,
        default_duration_days, default_capacity, objectives, cadence
        FROM course_levels ORDER BY series_id, display_order`
	var levels []models.CourseLevel
	if err := r.db.SelectContext(ctx, &levels, levelQuery); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	bySeries := make(map[string][]models.CourseLevel, len(series))
	for _, level := range levels {
		bySeries[level.SeriesID] = append(bySeries[level.SeriesID], level)
	}

	result := make([]models.SeriesWithLevels, 0, len(series))
	for _, s := range series {
		result = append(result, models.SeriesWithLevels{CourseSeries: s, Levels: bySeries[s.ID]})
	}
	return result, nil
}

// FindSeries returns a series by id.
func (r *CatalogRepository) FindSeries(ctx context.Context, id string) (*models.CourseSeries, error) {
	const query = `SELECT id, code, name, description, created_at, updated_at FROM course_series WHERE id = $1`
	var series models.CourseSeries
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// FindLevel returns a level by id.
func (r *CatalogRepository) FindLevel(ctx context.Context, id string) (*models.CourseLevel, error) {
	const query = `SELECT id, series_id, code, name, display_order, default_session_count,
        default_duration_days, default_capacity, objectives, cadence
        FROM course_levels WHERE id = $1`
	var level models.CourseLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}
