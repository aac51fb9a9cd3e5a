package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/events"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
	"github.com/SAP-F-2025/answer-key-service/internal/validator"
)

type answerKeyService struct {
	source    repositories.AnswerKeySource
	importer  repositories.AnswerKeyImporter
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
}

// NewAnswerKeyService builds the read side of the answer key. importer and
// publisher may be nil; imports are then refused and no events are sent.
func NewAnswerKeyService(
	source repositories.AnswerKeySource,
	importer repositories.AnswerKeyImporter,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AnswerKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = newDefaultValidator()
	}
	return &answerKeyService{
		source:    source,
		importer:  importer,
		publisher: publisher,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "answer-key-service", Component: "answer_key"}),
		validator: validator,
	}
}

// GetPaper fetches and normalizes the answer key of a paper. A blank paper id
// skips the fetch. When the backend has no records and fallback is set, the
// built-in sample tree is returned instead.
func (s *answerKeyService) GetPaper(ctx context.Context, paperID string, fallback bool) (view *PaperView, err error) {
	op := s.opLogger.WithOperation(ctx, "get_paper")
	defer func() { op.LogResult(paperID, "paper", err) }()

	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return emptyPaper("", fallback), nil
	}

	recs, err := s.source.FetchByPaper(ctx, paperID)
	if err != nil {
		return nil, fetchFailed(fmt.Sprintf("answer key of paper %s", paperID), err)
	}

	if len(recs) == 0 {
		return emptyPaper(paperID, fallback), nil
	}
	return newPaperView(paperID, answerkey.NormalizeAll(recs)), nil
}

// GetStudentView fetches a single question with the student's answer and
// marks merged in. Either id blank skips the fetch.
func (s *answerKeyService) GetStudentView(ctx context.Context, studentID, questionID string) (view *PaperView, err error) {
	op := s.opLogger.WithOperation(ctx, "get_student_view")
	defer func() { op.LogResult(questionID, "student_answer", err) }()

	studentID = strings.TrimSpace(studentID)
	questionID = strings.TrimSpace(questionID)
	if studentID == "" || questionID == "" {
		return emptyPaper("", false), nil
	}

	recs, err := s.source.FetchStudentView(ctx, studentID, questionID)
	if err != nil {
		return nil, fetchFailed(fmt.Sprintf("answer of student %s to question %s", studentID, questionID), err)
	}
	if len(recs) == 0 {
		return emptyPaper("", false), nil
	}
	return newPaperView("", answerkey.NormalizeAll(recs)), nil
}

// ImportPaper validates every question and replaces the stored answer key of
// the paper with nodes.
func (s *answerKeyService) ImportPaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) (view *PaperView, err error) {
	op := s.opLogger.WithOperation(ctx, "import_paper")
	defer func() { op.LogResult(paperID, "paper", err) }()

	if s.importer == nil {
		return nil, ErrImportNotSupported
	}
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return nil, NewValidationError("paper_id", "is required", paperID)
	}
	if len(nodes) == 0 {
		return nil, NewBusinessRuleError("non_empty_import", "answer key import contains no questions",
			map[string]interface{}{"paper_id": paperID})
	}

	if err := s.validateNodes(nodes); err != nil {
		return nil, err
	}

	if err := s.importer.ReplacePaper(ctx, paperID, nodes); err != nil {
		if errors.Is(err, repositories.ErrImportUnsupported) {
			return nil, fmt.Errorf("%w: %w", ErrImportNotSupported, err)
		}
		return nil, fmt.Errorf("%w: replace paper %s: %w", ErrPersistFailed, paperID, err)
	}

	view = newPaperView(paperID, nodes)
	publish(ctx, s.publisher, s.logger, events.NewEvent(events.EventPaperImported, events.PaperImportedEvent{
		PaperID:       paperID,
		QuestionCount: len(nodes),
		TotalMarks:    view.Score.MaxMarks,
	}))
	return view, nil
}

func (s *answerKeyService) validateNodes(nodes []*models.QuestionNode) error {
	var all ValidationErrors
	for i, n := range nodes {
		err := s.validator.Validate(answerkey.BuildSaveRequest(n))
		if err == nil {
			continue
		}
		var errs ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}
		for _, e := range errs {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			all = append(all, e)
		}
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

func emptyPaper(paperID string, fallback bool) *PaperView {
	if fallback {
		view := newPaperView(paperID, answerkey.SampleTree())
		view.Fallback = true
		return view
	}
	return &PaperView{PaperID: paperID, Questions: []*models.QuestionNode{}, Empty: true}
}

func newPaperView(paperID string, nodes []*models.QuestionNode) *PaperView {
	return &PaperView{
		PaperID:   paperID,
		Questions: nodes,
		Score:     answerkey.ScoreAll(nodes),
		Empty:     len(nodes) == 0,
	}
}

// publish sends event when a publisher is configured. Delivery failures are
// logged and never fail the operation that produced the event.
func publish(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
