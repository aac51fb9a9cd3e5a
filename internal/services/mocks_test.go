package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAnswerKeySource is a mock implementation of repositories.AnswerKeySource
type MockAnswerKeySource struct {
	mock.Mock
}

func (m *MockAnswerKeySource) FetchByPaper(ctx context.Context, paperID string) ([]models.RawRecord, error) {
	args := m.Called(ctx, paperID)
	recs, _ := args.Get(0).([]models.RawRecord)
	return recs, args.Error(1)
}

func (m *MockAnswerKeySource) FetchStudentView(ctx context.Context, studentID, questionID string) ([]models.RawRecord, error) {
	args := m.Called(ctx, studentID, questionID)
	recs, _ := args.Get(0).([]models.RawRecord)
	return recs, args.Error(1)
}

// MockAnswerKeyImporter is a mock implementation of repositories.AnswerKeyImporter
type MockAnswerKeyImporter struct {
	mock.Mock
}

func (m *MockAnswerKeyImporter) ReplacePaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) error {
	args := m.Called(ctx, paperID, nodes)
	return args.Error(0)
}

// MockQuestionSaver is a mock implementation of repositories.QuestionSaver
type MockQuestionSaver struct {
	mock.Mock
}

func (m *MockQuestionSaver) SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockOutcomeBackend is a mock implementation of repositories.OutcomeBackend
type MockOutcomeBackend struct {
	mock.Mock
}

func (m *MockOutcomeBackend) FetchOutcomeMappings(ctx context.Context, courseID string) ([]matrix.Cell, error) {
	args := m.Called(ctx, courseID)
	cells, _ := args.Get(0).([]matrix.Cell)
	return cells, args.Error(1)
}

func (m *MockOutcomeBackend) SaveOutcomeMapping(ctx context.Context, courseID string, cell matrix.Cell) error {
	args := m.Called(ctx, courseID, cell)
	return args.Error(0)
}

func paperRecords() []models.RawRecord {
	return []models.RawRecord{
		{
			"id":              "q1",
			"question_number": 1,
			"max_marks":       10,
			"question":        "Define a process.",
			"expected_answer": "A program in execution.",
			"key_points":      "- program\n- execution",
			"sub_questions": []interface{}{
				map[string]interface{}{"id": "q1a", "max_marks": 4, "question": "part a", "key_points": []interface{}{"a"}},
				map[string]interface{}{"id": "q1b", "max_marks": 6, "question": "part b", "expected_answer": "b"},
			},
		},
		{
			"questionId":     "q2",
			"questionNumber": 2,
			"maxMarks":       5,
			"questionText":   "Define a thread.",
			"expectedAnswer": "A unit of scheduling.",
		},
	}
}
