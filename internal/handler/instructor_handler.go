package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bs-edu/bs-admin-api/internal/service"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

// InstructorHandler exposes per-course instructor roster endpoints.
type InstructorHandler struct {
	instructors *service.InstructorService
}

// NewInstructorHandler constructs InstructorHandler.
func NewInstructorHandler(instructors *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

// ListByCourse godoc
// @Summary List instructors on a course roster
// @Tags Instructors
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/instructors [get]
func (h *InstructorHandler) ListByCourse(c *gin.Context) {
	roster, err := h.instructors.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Create godoc
// @Summary Add an instructor to a course roster
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.InstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/instructors [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	var req service.InstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.instructors.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// Update godoc
// @Summary Edit instructor details
// @Tags Instructors
// @Accept json
// @Produce json
// @Param instructorId path string true "Instructor ID"
// @Param payload body service.InstructorRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Router /instructors/{instructorId} [put]
func (h *InstructorHandler) Update(c *gin.Context) {
	var req service.InstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.instructors.Update(c.Request.Context(), c.Param("instructorId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// Delete godoc
// @Summary Remove an instructor; their sub-sessions revert to unassigned
// @Tags Instructors
// @Param instructorId path string true "Instructor ID"
// @Success 204
// @Router /instructors/{instructorId} [delete]
func (h *InstructorHandler) Delete(c *gin.Context) {
	if err := h.instructors.Delete(c.Request.Context(), c.Param("instructorId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
