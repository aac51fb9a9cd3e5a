package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

type cellInput struct {
	Row   string  `json:"row" validate:"required,outcome_row"`
	Value float64 `json:"value" validate:"outcome_strength"`
}

type nestedInput struct {
	Kind string `json:"kind" validate:"child_kind"`
	ID   string `json:"id" validate:"node_id"`
}

func TestValidator_CustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(cellInput{Row: "CO1", Value: 19}))
	assert.NoError(t, v.Validate(nestedInput{Kind: "alternative", ID: "q1"}))

	tests := []struct {
		name  string
		input interface{}
		field string
		rule  string
	}{
		{"synthetic row", cellInput{Row: "TOTAL", Value: 1}, "row", "outcome_row"},
		{"strength too high", cellInput{Row: "CO1", Value: 20}, "value", "outcome_strength"},
		{"fractional strength", cellInput{Row: "CO1", Value: 1.5}, "value", "outcome_strength"},
		{"negative strength", cellInput{Row: "CO1", Value: -1}, "value", "outcome_strength"},
		{"bad kind", nestedInput{Kind: "sibling", ID: "q1"}, "kind", "child_kind"},
		{"blank id", nestedInput{Kind: "part", ID: "  "}, "id", "node_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)

			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.rule, errs[0].Rule)
		})
	}
}

func TestValidator_NestedSaveRequestPath(t *testing.T) {
	v := New()
	req := &models.SaveQuestionRequest{
		QuestionID: "q1",
		MaxMarks:   10,
		SubQuestions: []*models.SaveQuestionRequest{
			{QuestionID: "q1a", MaxMarks: 4},
			{QuestionID: "q1b", MaxMarks: -2},
		},
	}

	var errs ValidationErrors
	require.ErrorAs(t, v.Validate(req), &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "sub_questions[1].max_marks", errs[0].Field)
	assert.Equal(t, "must be at least 0", errs[0].Message)
}

func TestQuestionValidator_Warnings(t *testing.T) {
	qv := NewQuestionValidator()

	clean := &models.SaveQuestionRequest{
		MaxMarks: 10,
		SubQuestions: []*models.SaveQuestionRequest{
			{MaxMarks: 4, KeyPoints: []string{"a"}},
			{MaxMarks: 6, ExpectedAnswer: "b"},
		},
		OrQuestions: []*models.SaveQuestionRequest{
			{MaxMarks: 10, KeyPoints: []string{"c"}},
		},
	}
	assert.Empty(t, qv.Warnings(clean))

	messy := &models.SaveQuestionRequest{
		MaxMarks: 10,
		OptionA:  models.StringPtr("only"),
		SubQuestions: []*models.SaveQuestionRequest{
			{MaxMarks: 3, KeyPoints: []string{"a"}},
		},
		OrQuestions: []*models.SaveQuestionRequest{
			{MaxMarks: 8, ExpectedAnswer: "x"},
		},
	}
	warnings := qv.Warnings(messy)
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "parts add up to 3")
	assert.Contains(t, warnings[1], "alternative 1 is worth 8")
	assert.Contains(t, warnings[2], "only one multiple-choice option")
}
