package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bs-edu/bs-admin-api/internal/service"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

// WaitlistHandler exposes waiting-list endpoints.
type WaitlistHandler struct {
	waitlist *service.WaitlistService
}

// NewWaitlistHandler constructs WaitlistHandler.
func NewWaitlistHandler(waitlist *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

// ListByCourse godoc
// @Summary List the waiting list for a course in position order
// @Tags Waitlist
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/waitlist [get]
func (h *WaitlistHandler) ListByCourse(c *gin.Context) {
	entries, err := h.waitlist.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Promote godoc
// @Summary Enroll one waiting trainee if a seat is open
// @Tags Waitlist
// @Produce json
// @Param entryId path string true "Waitlist entry ID"
// @Success 200 {object} response.Envelope
// @Router /waitlist/{entryId}/promote [post]
func (h *WaitlistHandler) Promote(c *gin.Context) {
	enrollment, err := h.waitlist.Promote(c.Request.Context(), c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// ProcessAll godoc
// @Summary Promote waiting trainees in order until the course is full
// @Tags Waitlist
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/waitlist/process [post]
func (h *WaitlistHandler) ProcessAll(c *gin.Context) {
	result, err := h.waitlist.ProcessAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reorder godoc
// @Summary Move a waiting-list entry to a new position
// @Tags Waitlist
// @Accept json
// @Param entryId path string true "Waitlist entry ID"
// @Param payload body object true "Reorder payload"
// @Success 204
// @Router /waitlist/{entryId}/reorder [patch]
func (h *WaitlistHandler) Reorder(c *gin.Context) {
	var req struct {
		Position int `json:"position" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.waitlist.Reorder(c.Request.Context(), c.Param("entryId"), req.Position); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Notify godoc
// @Summary Mark a waiting trainee as contacted
// @Tags Waitlist
// @Param entryId path string true "Waitlist entry ID"
// @Success 204
// @Router /waitlist/{entryId}/notify [post]
func (h *WaitlistHandler) Notify(c *gin.Context) {
	if err := h.waitlist.Notify(c.Request.Context(), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Remove a waiting-list entry without enrolling
// @Tags Waitlist
// @Param entryId path string true "Waitlist entry ID"
// @Success 204
// @Router /waitlist/{entryId} [delete]
func (h *WaitlistHandler) Remove(c *gin.Context) {
	if err := h.waitlist.Remove(c.Request.Context(), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
