package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

var (
	// ErrNotFound is returned by stores when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrImportUnsupported is returned when the backend cannot replace a paper.
	ErrImportUnsupported = errors.New("backend does not support answer key import")
)

// ===== BACKEND INTERFACES =====

// AnswerKeySource fetches raw answer-key records. Implementations return the
// records untouched; normalization happens in the service layer.
type AnswerKeySource interface {
	FetchByPaper(ctx context.Context, paperID string) ([]models.RawRecord, error)
	FetchStudentView(ctx context.Context, studentID, questionID string) ([]models.RawRecord, error)
}

// QuestionSaver persists one edited answer-key question.
type QuestionSaver interface {
	SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error
}

// OutcomeSource fetches the flat CO/PO mapping list of a course.
type OutcomeSource interface {
	FetchOutcomeMappings(ctx context.Context, courseID string) ([]matrix.Cell, error)
}

// OutcomeSink persists one edited matrix cell.
type OutcomeSink interface {
	SaveOutcomeMapping(ctx context.Context, courseID string, cell matrix.Cell) error
}

// AnswerKeyBackend is the full set of answer-key operations one backend offers.
type AnswerKeyBackend interface {
	AnswerKeySource
	QuestionSaver
}

// OutcomeBackend is the full set of outcome-mapping operations one backend offers.
type OutcomeBackend interface {
	OutcomeSource
	OutcomeSink
}

// AnswerKeyImporter replaces the stored answer key of a paper. Only the local
// store implements it.
type AnswerKeyImporter interface {
	ReplacePaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) error
}
