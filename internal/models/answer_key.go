package models

import (
	"time"

	"gorm.io/datatypes"
)

// RawRecord is an answer-key record as it arrives from a backend, before
// normalization. Keys may follow either snake_case or camelCase naming.
type RawRecord map[string]interface{}

// SaveQuestionRequest is the wire payload of the save-question operation.
type SaveQuestionRequest struct {
	// PaperID scopes the save on stores that key questions per paper. It is
	// not part of the wire payload.
	PaperID string `json:"-"`

	QuestionID     NodeID   `json:"questionId"`
	QuestionNumber int      `json:"question_number" validate:"min=0"`
	MaxMarks       float64  `json:"max_marks" validate:"min=0"`
	Question       string   `json:"question"`
	ExpectedAnswer string   `json:"expected_answer"`
	KeyPoints      []string `json:"key_points"`
	MarkingScheme  string   `json:"marking_scheme"`
	OptionA        *string  `json:"option_a"`
	OptionB        *string  `json:"option_b"`
	OptionC        *string  `json:"option_c"`
	OptionD        *string  `json:"option_d"`

	// Set on nested parts and alternatives edited in the same draft.
	PartLabel    *string                `json:"part_label,omitempty"`
	SubQuestions []*SaveQuestionRequest `json:"sub_questions,omitempty" validate:"omitempty,dive"`
	OrQuestions  []*SaveQuestionRequest `json:"or_questions,omitempty" validate:"omitempty,dive"`
}

// AnswerKeyQuestion is the postgres row backing the local answer-key store.
// Children are kept inline as JSON in the canonical wire shape. Question ids
// are unique within a paper only.
type AnswerKeyQuestion struct {
	PaperID        string         `json:"paper_id" gorm:"primaryKey;size:64"`
	ID             string         `json:"id" gorm:"primaryKey;size:64"`
	QuestionNumber int            `json:"question_number" gorm:"not null;default:0"`
	MaxMarks       float64        `json:"max_marks" gorm:"not null;default:0"`
	Question       string         `json:"question" gorm:"type:text"`
	ExpectedAnswer string         `json:"expected_answer" gorm:"type:text"`
	KeyPoints      datatypes.JSON `json:"key_points" gorm:"type:jsonb"` // []string
	MarkingScheme  string         `json:"marking_scheme" gorm:"type:text"`
	PartLabel      *string        `json:"part_label" gorm:"size:16"`
	OptionA        *string        `json:"option_a" gorm:"type:text"`
	OptionB        *string        `json:"option_b" gorm:"type:text"`
	OptionC        *string        `json:"option_c" gorm:"type:text"`
	OptionD        *string        `json:"option_d" gorm:"type:text"`
	SubQuestions   datatypes.JSON `json:"sub_questions" gorm:"type:jsonb"` // []RawRecord
	OrQuestions    datatypes.JSON `json:"or_questions" gorm:"type:jsonb"`  // []RawRecord

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AnswerKeyQuestion) TableName() string {
	return "answer_key_questions"
}

// StudentAnswer is a graded student response to one answer-key question.
type StudentAnswer struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	StudentID    string         `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_student_question"`
	PaperID      string         `json:"paper_id" gorm:"not null;size:64;uniqueIndex:idx_student_question"`
	QuestionID   string         `json:"question_id" gorm:"not null;size:64;uniqueIndex:idx_student_question"`
	Answer       string         `json:"student_answer" gorm:"type:text"`
	MarksAwarded *float64       `json:"marks_awarded"`
	Feedback     *string        `json:"feedback" gorm:"type:text"`
	PartAnswers  datatypes.JSON `json:"part_answers" gorm:"type:jsonb"` // question id -> {student_answer, marks_awarded, feedback}

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question AnswerKeyQuestion `json:"-" gorm:"foreignKey:PaperID,QuestionID;references:PaperID,ID"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
