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

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param traineeId query string false "Filter by trainee"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.CourseID = c.Query("courseId")
	filter.TraineeID = c.Query("traineeId")
	filter.Status = models.EnrollmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// SearchTrainees godoc
// @Summary Search trainees available for enrollment
// @Tags Enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Param search_term query string false "Name or employee number"
// @Param department query string false "Filter by department"
// @Param sort_by query string false "name, department or created_at"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/available-trainees [get]
func (h *EnrollmentHandler) SearchTrainees(c *gin.Context) {
	var filter models.TraineeFilter
	filter.ExcludeEnrolledInCourse = c.Param("id")
	filter.Search = c.Query("search_term")
	if filter.Search == "" {
		filter.Search = c.Query("search")
	}
	filter.Department = c.Query("department")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	trainees, pagination, err := h.enrollments.SearchTrainees(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	result := models.TraineeSearchResult{
		Trainees:    trainees,
		TotalCount:  pagination.TotalCount,
		HasNext:     pagination.HasNext(),
		HasPrevious: pagination.HasPrevious(),
	}
	response.JSON(c, http.StatusOK, result, pagination)
}

// BulkEnroll godoc
// @Summary Enroll trainees; overflow goes to the waiting list
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.BulkEnrollRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *EnrollmentHandler) BulkEnroll(c *gin.Context) {
	var req service.BulkEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.BulkEnroll(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unenroll godoc
// @Summary Drop one enrollment
// @Tags Enrollments
// @Accept json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.enrollments.Unenroll(c.Request.Context(), c.Param("enrollmentId"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkUnenroll godoc
// @Summary Drop several enrollments with per-item outcomes
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.BulkUnenrollRequest true "Unenroll payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/bulk-delete [post]
func (h *EnrollmentHandler) BulkUnenroll(c *gin.Context) {
	var req service.BulkUnenrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	items, err := h.enrollments.BulkUnenroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Complete godoc
// @Summary Mark an enrollment completed
// @Tags Enrollments
// @Param enrollmentId path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{enrollmentId}/complete [post]
func (h *EnrollmentHandler) Complete(c *gin.Context) {
	if err := h.enrollments.Complete(c.Request.Context(), c.Param("enrollmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Course occupancy dashboard
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments/summary [get]
func (h *EnrollmentHandler) Summary(c *gin.Context) {
	summary, err := h.enrollments.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// History godoc
// @Summary Enrollment event history for a course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments/history [get]
func (h *EnrollmentHandler) History(c *gin.Context) {
	events, err := h.enrollments.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
