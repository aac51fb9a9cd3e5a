package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appvalidator "github.com/SAP-F-2025/answer-key-service/internal/validator"
)

// RegisterGinValidators installs the custom tags on gin's binding engine so
// ShouldBindJSON enforces them too.
func RegisterGinValidators() bool {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return false
	}
	appvalidator.RegisterCustomValidators(v)
	return true
}
