package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
	}
}

// OpenSession starts a review session over a paper's answer key
// @Summary Open review session
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body services.OpenReviewRequest true "Paper to review"
// @Success 201 {object} services.ReviewView
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) OpenSession(c *gin.Context) {
	var req services.OpenReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Opening review session", "paper_id", req.PaperID, "fallback", req.Fallback)

	view, err := h.reviewService.Open(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession renders every question of the session in its current mode
// @Router /reviews/{session_id} [get]
func (h *ReviewHandler) GetSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	view, err := h.reviewService.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CloseSession discards the session and its unsaved drafts
// @Router /reviews/{session_id} [delete]
func (h *ReviewHandler) CloseSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, "Closing review session", "session_id", sessionID)

	if err := h.reviewService.Close(c.Request.Context(), sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BeginEdit opens a draft of the question
// @Router /reviews/{session_id}/questions/{question_id}/edit [post]
func (h *ReviewHandler) BeginEdit(c *gin.Context) {
	sessionID, questionID, ok := h.questionParams(c)
	if !ok {
		return
	}

	view, err := h.reviewService.BeginEdit(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateDraft merges a partial update into the question's draft
// @Accept json
// @Param patch body models.QuestionPatch true "Fields to change"
// @Router /reviews/{session_id}/questions/{question_id}/draft [patch]
func (h *ReviewHandler) UpdateDraft(c *gin.Context) {
	sessionID, questionID, ok := h.questionParams(c)
	if !ok {
		return
	}

	var patch models.QuestionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.reviewService.UpdateDraft(c.Request.Context(), sessionID, questionID, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateNested merges a partial update into one part or alternative of the draft
// @Accept json
// @Param kind path string true "part or alternative"
// @Param index path int true "Position in the collection"
// @Param patch body models.QuestionPatch true "Fields to change"
// @Router /reviews/{session_id}/questions/{question_id}/draft/{kind}/{index} [patch]
func (h *ReviewHandler) UpdateNested(c *gin.Context) {
	sessionID, questionID, ok := h.questionParams(c)
	if !ok {
		return
	}
	kind := models.ChildKind(c.Param("kind"))
	index, ok := ParseIndexParam(c, "index")
	if !ok {
		return
	}

	var patch models.QuestionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.reviewService.UpdateNested(c.Request.Context(), sessionID, questionID, kind, index, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CancelEdit drops the draft and shows the saved question again
// @Router /reviews/{session_id}/questions/{question_id}/draft [delete]
func (h *ReviewHandler) CancelEdit(c *gin.Context) {
	sessionID, questionID, ok := h.questionParams(c)
	if !ok {
		return
	}

	view, err := h.reviewService.CancelEdit(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveQuestion persists the draft
// @Success 200 {object} services.SaveResult
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /reviews/{session_id}/questions/{question_id}/save [post]
func (h *ReviewHandler) SaveQuestion(c *gin.Context) {
	sessionID, questionID, ok := h.questionParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Saving question", "session_id", sessionID, "question_id", questionID)

	result, err := h.reviewService.Save(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) questionParams(c *gin.Context) (string, models.NodeID, bool) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return "", "", false
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return "", "", false
	}
	return sessionID, models.NodeID(questionID), true
}
