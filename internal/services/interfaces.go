package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
)

// ===== ANSWER KEY =====

type AnswerKeyService interface {
	GetPaper(ctx context.Context, paperID string, fallback bool) (*PaperView, error)
	GetStudentView(ctx context.Context, studentID, questionID string) (*PaperView, error)
	ImportPaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) (*PaperView, error)
}

// PaperView is a normalized answer key ready to render. Empty is set when the
// backend returned nothing and no sample was substituted.
type PaperView struct {
	PaperID   string                 `json:"paper_id,omitempty"`
	Questions []*models.QuestionNode `json:"questions"`
	Score     answerkey.ScoreSummary `json:"score"`
	Empty     bool                   `json:"empty"`
	Fallback  bool                   `json:"fallback"`
}

// ===== REVIEW SESSIONS =====

type ReviewService interface {
	Open(ctx context.Context, req *OpenReviewRequest) (*ReviewView, error)
	Get(ctx context.Context, sessionID string) (*ReviewView, error)
	Close(ctx context.Context, sessionID string) error

	BeginEdit(ctx context.Context, sessionID string, questionID models.NodeID) (*review.NodeView, error)
	UpdateDraft(ctx context.Context, sessionID string, questionID models.NodeID, patch models.QuestionPatch) (*review.NodeView, error)
	UpdateNested(ctx context.Context, sessionID string, questionID models.NodeID, kind models.ChildKind, index int, patch models.QuestionPatch) (*review.NodeView, error)
	CancelEdit(ctx context.Context, sessionID string, questionID models.NodeID) (*review.NodeView, error)
	Save(ctx context.Context, sessionID string, questionID models.NodeID) (*SaveResult, error)
}

type OpenReviewRequest struct {
	PaperID  string `json:"paper_id" validate:"required"`
	Fallback bool   `json:"fallback"`
}

type ReviewView struct {
	SessionID string                 `json:"session_id"`
	PaperID   string                 `json:"paper_id"`
	Fallback  bool                   `json:"fallback"`
	Empty     bool                   `json:"empty"`
	Questions []review.NodeView      `json:"questions"`
	Score     answerkey.ScoreSummary `json:"score"`
}

// SaveResult carries the saved question and any advisory warnings about its
// marks or options. Warnings never block a save.
type SaveResult struct {
	View     review.NodeView `json:"question"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ===== OUTCOME MATRIX =====

type OutcomeMatrixService interface {
	GetMatrix(ctx context.Context, courseID string) (*MatrixView, error)
	SetCell(ctx context.Context, courseID string, req *SetCellRequest) (*MatrixView, error)
	Reload(ctx context.Context, courseID string) (*MatrixView, error)
}

type SetCellRequest struct {
	Row    string  `json:"row" validate:"required,outcome_row"`
	Column string  `json:"column" validate:"required"`
	Value  float64 `json:"value" validate:"outcome_strength"`
}

type MatrixView struct {
	CourseID string `json:"course_id"`
	Empty    bool   `json:"empty"`
	matrix.View
}

// ===== IMPORT / EXPORT =====

type ImportExportService interface {
	ExportAnswerKey(ctx context.Context, paperID string) ([]byte, error)
	ExportMatrix(ctx context.Context, courseID string) ([]byte, error)
	ImportAnswerKey(ctx context.Context, paperID string, reader io.Reader, filename string) (*ImportResult, error)
}

type ImportResult struct {
	PaperID       string                 `json:"paper_id"`
	TotalRows     int                    `json:"total_rows"`
	ImportedCount int                    `json:"imported_count"`
	ErrorCount    int                    `json:"error_count"`
	Errors        []ImportRowError       `json:"errors,omitempty"`
	Score         answerkey.ScoreSummary `json:"score"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
