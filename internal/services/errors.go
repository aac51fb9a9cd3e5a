package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/answer-key-service/internal/errors"
	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Backend errors
	ErrFetchFailed   = errors.New("failed to load data from backend")
	ErrPersistFailed = errors.New("failed to persist change to backend")

	// Answer key specific errors
	ErrImportNotSupported = errors.New("answer key import requires the local store")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func fetchFailed(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, what, err)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, repositories.ErrNotFound) ||
		errors.Is(err, review.ErrSessionNotFound) ||
		errors.Is(err, review.ErrNodeNotFound) ||
		errors.Is(err, matrix.ErrUnknownRow) ||
		errors.Is(err, matrix.ErrUnknownColumn)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, review.ErrInvalidChildKind) ||
		errors.Is(err, matrix.ErrStrengthOutOfRange) ||
		errors.Is(err, matrix.ErrSyntheticRow) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a state conflict in an edit session
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, review.ErrNotEditing) ||
		errors.Is(err, review.ErrSaveInFlight) ||
		errors.Is(err, review.ErrFallbackReadOnly) ||
		errors.Is(err, ErrImportNotSupported)
}

// IsUpstream checks if error came from a failed backend call
func IsUpstream(err error) bool {
	if errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrPersistFailed) {
		return true
	}
	var se *review.SaveError
	return errors.As(err, &se)
}
