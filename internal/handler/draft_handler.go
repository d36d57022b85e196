package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bs-edu/bs-admin-api/internal/service"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
	"github.com/bs-edu/bs-admin-api/pkg/response"
)

// DraftHandler exposes the course creation wizard endpoints.
type DraftHandler struct {
	drafts *service.DraftService
}

// NewDraftHandler constructs DraftHandler.
func NewDraftHandler(drafts *service.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// Start godoc
// @Summary Open a new course creation wizard session
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body service.StartDraftRequest true "Wizard kind"
// @Success 201 {object} response.Envelope
// @Router /drafts [post]
func (h *DraftHandler) Start(c *gin.Context) {
	var req service.StartDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.drafts.Start(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Get godoc
// @Summary Load a wizard session
// @Tags Wizard
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{draftId} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.drafts.Get(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// UpdateStep godoc
// @Summary Merge form state into the wizard without moving steps
// @Tags Wizard
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body service.DraftStepRequest true "Step payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{draftId} [patch]
func (h *DraftHandler) UpdateStep(c *gin.Context) {
	var req service.DraftStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.drafts.UpdateStep(c.Request.Context(), c.Param("draftId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Next godoc
// @Summary Merge form state and advance one wizard step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body service.DraftStepRequest true "Step payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{draftId}/next [post]
func (h *DraftHandler) Next(c *gin.Context) {
	var req service.DraftStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.drafts.Next(c.Request.Context(), c.Param("draftId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Prev godoc
// @Summary Step the wizard back, keeping answers
// @Tags Wizard
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{draftId}/prev [post]
func (h *DraftHandler) Prev(c *gin.Context) {
	draft, err := h.drafts.Prev(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Submit godoc
// @Summary Validate the wizard and create the course
// @Tags Wizard
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 201 {object} response.Envelope
// @Router /drafts/{draftId}/submit [post]
func (h *DraftHandler) Submit(c *gin.Context) {
	course, err := h.drafts.Submit(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Cancel godoc
// @Summary Discard a wizard session
// @Tags Wizard
// @Param draftId path string true "Draft ID"
// @Success 204
// @Router /drafts/{draftId} [delete]
func (h *DraftHandler) Cancel(c *gin.Context) {
	if err := h.drafts.Cancel(c.Request.Context(), c.Param("draftId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
