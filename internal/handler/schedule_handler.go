package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bs-edu/bs-admin-api/internal/service"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

const maxScheduleUploadBytes = 2 << 20

// ScheduleHandler exposes day-plan and sub-session endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// ListDays godoc
// @Summary List the day plan for a course
// @Tags Schedule
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule [get]
func (h *ScheduleHandler) ListDays(c *gin.Context) {
	days, err := h.schedules.ListDays(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// Replan godoc
// @Summary Regenerate the business-day plan from the start date
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body object true "Replan payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule/replan [post]
func (h *ScheduleHandler) Replan(c *gin.Context) {
	var req struct {
		TotalDays int `json:"total_days" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	days, err := h.schedules.Replan(c.Request.Context(), c.Param("id"), req.TotalDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// ResetEndDate godoc
// @Summary Re-enable automatic end date calculation
// @Tags Schedule
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule/reset-end-date [post]
func (h *ScheduleHandler) ResetEndDate(c *gin.Context) {
	course, err := h.schedules.ResetAutoEndDate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// AddSubSession godoc
// @Summary Add a sub-session to a schedule day
// @Tags Schedule
// @Accept json
// @Produce json
// @Param dayId path string true "Day ID"
// @Param payload body service.SubSessionRequest true "Sub-session payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-days/{dayId}/sessions [post]
func (h *ScheduleHandler) AddSubSession(c *gin.Context) {
	var req service.SubSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.schedules.AddSubSession(c.Request.Context(), c.Param("dayId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// UpdateSubSession godoc
// @Summary Edit a sub-session
// @Tags Schedule
// @Accept json
// @Produce json
// @Param sessionId path string true "Sub-session ID"
// @Param payload body service.SubSessionRequest true "Sub-session payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-sessions/{sessionId} [put]
func (h *ScheduleHandler) UpdateSubSession(c *gin.Context) {
	var req service.SubSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.schedules.UpdateSubSession(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// RemoveSubSession godoc
// @Summary Delete a sub-session
// @Tags Schedule
// @Param sessionId path string true "Sub-session ID"
// @Success 204
// @Router /schedule-sessions/{sessionId} [delete]
func (h *ScheduleHandler) RemoveSubSession(c *gin.Context) {
	if err := h.schedules.RemoveSubSession(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Download the schedule as a CSV spreadsheet
// @Tags Schedule
// @Produce text/csv
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Router /courses/{id}/schedule/export [get]
func (h *ScheduleHandler) ExportCSV(c *gin.Context) {
	payload, err := h.schedules.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}

// ImportCSV godoc
// @Summary Replace the schedule from an uploaded CSV spreadsheet
// @Tags Schedule
// @Accept text/csv
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule/import [post]
func (h *ScheduleHandler) ImportCSV(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScheduleUploadBytes))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "failed to read upload"))
		return
	}
	result, err := h.schedules.ImportCSV(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		if result != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: result})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
