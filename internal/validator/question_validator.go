package validator

import (
	"fmt"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// QuestionValidator reports inconsistencies in an edited question that do not
// block saving but are worth showing to the reviewer
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// Warnings returns human-readable notes about req and its nested questions.
func (v *QuestionValidator) Warnings(req *models.SaveQuestionRequest) []string {
	var warnings []string
	v.collect(req, "question", &warnings)
	return warnings
}

func (v *QuestionValidator) collect(req *models.SaveQuestionRequest, label string, warnings *[]string) {
	if req == nil {
		return
	}

	var partMarks float64
	for _, sq := range req.SubQuestions {
		if sq != nil {
			partMarks += sq.MaxMarks
		}
	}
	if len(req.SubQuestions) > 0 && req.MaxMarks > 0 && partMarks != req.MaxMarks {
		*warnings = append(*warnings, fmt.Sprintf("%s: parts add up to %g marks but the question is worth %g", label, partMarks, req.MaxMarks))
	}

	for i, oq := range req.OrQuestions {
		if oq != nil && req.MaxMarks > 0 && oq.MaxMarks != req.MaxMarks {
			*warnings = append(*warnings, fmt.Sprintf("%s: alternative %d is worth %g marks, expected %g", label, i+1, oq.MaxMarks, req.MaxMarks))
		}
	}

	options := 0
	for _, o := range []*string{req.OptionA, req.OptionB, req.OptionC, req.OptionD} {
		if o != nil {
			options++
		}
	}
	if options == 1 {
		*warnings = append(*warnings, fmt.Sprintf("%s: only one multiple-choice option is set", label))
	}

	if len(req.KeyPoints) == 0 && req.ExpectedAnswer == "" && len(req.SubQuestions) == 0 && options == 0 {
		*warnings = append(*warnings, fmt.Sprintf("%s: no expected answer or key points", label))
	}

	for i, sq := range req.SubQuestions {
		v.collect(sq, fmt.Sprintf("%s part %d", label, i+1), warnings)
	}
	for i, oq := range req.OrQuestions {
		v.collect(oq, fmt.Sprintf("%s alternative %d", label, i+1), warnings)
	}
}
