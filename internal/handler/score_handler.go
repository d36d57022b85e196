package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bs-edu/bs-admin-api/internal/models"
	"github.com/bs-edu/bs-admin-api/internal/service"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

// ScoreHandler exposes score sheet endpoints.
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// ListByCourse godoc
// @Summary List score rows for a course
// @Tags Scores
// @Produce json
// @Param id path string true "Course ID"
// @Param round query int false "Filter by round"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/scores [get]
func (h *ScoreHandler) ListByCourse(c *gin.Context) {
	round, _ := strconv.Atoi(c.Query("round"))
	rows, err := h.scores.ListByCourse(c.Request.Context(), c.Param("id"), round)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Upsert godoc
// @Summary Save one trainee's round scores
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param round path int true "Round"
// @Param payload body service.ScoreEntry true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/scores/{round} [put]
func (h *ScoreHandler) Upsert(c *gin.Context) {
	round, err := strconv.Atoi(c.Param("round"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "round must be an integer"))
		return
	}
	var entry service.ScoreEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.scores.Upsert(c.Request.Context(), c.Param("id"), round, entry)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// BulkUpsert godoc
// @Summary Save a whole round of scores in one transaction
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.BulkScoreRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/scores [post]
func (h *ScoreHandler) BulkUpsert(c *gin.Context) {
	var req service.BulkScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scores, err := h.scores.BulkUpsert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Weights godoc
// @Summary Get the grading weights for a course
// @Tags Scores
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/score-weights [get]
func (h *ScoreHandler) Weights(c *gin.Context) {
	weights, err := h.scores.Weights(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// SaveWeights godoc
// @Summary Replace the grading weights for a course
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.WeightsRequest true "Weights payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/score-weights [put]
func (h *ScoreHandler) SaveWeights(c *gin.Context) {
	var req service.WeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	weights, err := h.scores.SaveWeights(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// Export godoc
// @Summary Download the score sheet
// @Tags Scores
// @Produce text/csv
// @Param id path string true "Course ID"
// @Param round query int false "Filter by round"
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Success 200 {file} file
// @Router /courses/{id}/scores/export [get]
func (h *ScoreHandler) Export(c *gin.Context) {
	round, _ := strconv.Atoi(c.Query("round"))
	format := models.ReportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	payload, contentType, err := h.scores.Export(c.Request.Context(), c.Param("id"), round, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="scores.`+string(format)+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
