package validator

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// Validator combines struct-tag validation with answer-key business checks
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	RegisterCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// RegisterCustomValidators registers the answer-key tags and json field naming on
// validate. It is also applied to gin's binding engine.
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("child_kind", validateChildKind)
	validate.RegisterValidation("outcome_strength", validateOutcomeStrength)
	validate.RegisterValidation("outcome_row", validateOutcomeRow)
	validate.RegisterValidation("node_id", validateNodeID)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateChildKind(fl validator.FieldLevel) bool {
	return models.ChildKind(fl.Field().String()).Valid()
}

func validateOutcomeStrength(fl validator.FieldLevel) bool {
	var v float64
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v = float64(fl.Field().Int())
	case reflect.Float32, reflect.Float64:
		v = fl.Field().Float()
	default:
		return false
	}
	return v == math.Trunc(v) && v >= 0 && v <= matrix.MaxStrength
}

func validateOutcomeRow(fl validator.FieldLevel) bool {
	row := strings.TrimSpace(fl.Field().String())
	return row != "" && !matrix.IsSynthetic(row)
}

func validateNodeID(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
