package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-key-service/internal/review"
	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Code      string      `json:"code,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return BaseHandler{
		logger: logger,
	}
}

func (h *BaseHandler) requestFields(c *gin.Context, additionalFields []interface{}) []interface{} {
	fields := []interface{}{
		"request_id", utils.RequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	return append(fields, additionalFields...)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := h.requestFields(c, additionalFields)
	fields = append(fields, "remote_addr", c.ClientIP())
	h.logger.InfoContext(c.Request.Context(), message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.logger.LogError(err, message, h.requestFields(c, additionalFields)...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.WarnContext(c.Request.Context(), message, h.requestFields(c, additionalFields)...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    "validation_failed",
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{*validationError},
			Code:    "validation_failed",
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
			Code: "business_rule",
		})
		return
	}

	// The draft is kept, so the reviewer can retry with the same content.
	var saveError *review.SaveError
	if errors.As(err, &saveError) {
		h.LogWarn(c, "Question save failed", "question_id", saveError.ID, "error", saveError.Err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message:   saveError.Message,
			Details:   map[string]interface{}{"question_id": saveError.ID},
			Code:      "save_failed",
			Retryable: true,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrFetchFailed):
		h.LogWarn(c, "Backend fetch failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message:   "Failed to load data, please try again",
			Code:      "fetch_failed",
			Retryable: true,
		})
	case errors.Is(err, services.ErrPersistFailed):
		h.LogWarn(c, "Backend write failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message:   "Failed to save change, please try again",
			Code:      "persist_failed",
			Retryable: true,
		})
	case errors.Is(err, review.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Review session not found",
			Code:    "session_not_found",
		})
	case errors.Is(err, review.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found in review session",
			Code:    "question_not_found",
		})
	case errors.Is(err, review.ErrNotEditing):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Question is not being edited",
			Code:    "not_editing",
		})
	case errors.Is(err, review.ErrSaveInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A save for this question is already in progress",
			Code:    "save_in_flight",
		})
	case errors.Is(err, review.ErrFallbackReadOnly):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "The sample answer key cannot be saved",
			Code:    "sample_read_only",
		})
	case errors.Is(err, services.ErrImportNotSupported):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Answer key import is not available for this backend",
			Code:    "import_not_supported",
		})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
			Details: err.Error(),
			Code:    "not_found",
		})
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
			Code:    "validation_failed",
		})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Resource conflict",
			Code:    "conflict",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
