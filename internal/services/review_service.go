package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/events"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
	"github.com/SAP-F-2025/answer-key-service/internal/validator"
)

type reviewService struct {
	keys      AnswerKeyService
	registry  *review.Registry
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
}

func NewReviewService(
	keys AnswerKeyService,
	registry *review.Registry,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = newDefaultValidator()
	}
	return &reviewService{
		keys:      keys,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "answer-key-service", Component: "review"}),
		validator: validator,
	}
}

// ===== SESSION LIFECYCLE =====

// Open loads the paper and starts a review session over it. Papers without an
// answer key open on the sample tree when req.Fallback is set; such sessions
// are read-only.
func (s *reviewService) Open(ctx context.Context, req *OpenReviewRequest) (view *ReviewView, err error) {
	op := s.opLogger.WithOperation(ctx, "open_review")
	defer func() { op.LogResult(req.PaperID, "review_session", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	paper, err := s.keys.GetPaper(ctx, req.PaperID, req.Fallback)
	if err != nil {
		return nil, err
	}

	session := s.registry.Open(paper.PaperID, paper.Questions, paper.Fallback)
	s.logger.InfoContext(ctx, "Review session opened",
		"session_id", session.ID,
		"paper_id", paper.PaperID,
		"questions", len(paper.Questions),
		"fallback", paper.Fallback)

	publish(ctx, s.publisher, s.logger, events.NewEvent(events.EventReviewOpened, events.ReviewSessionEvent{
		SessionID:     session.ID,
		PaperID:       session.PaperID,
		QuestionCount: len(paper.Questions),
		Fallback:      session.Fallback,
	}))
	return renderSession(session), nil
}

func (s *reviewService) Get(ctx context.Context, sessionID string) (*ReviewView, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return renderSession(session), nil
}

// Close discards the session and every unsaved draft in it.
func (s *reviewService) Close(ctx context.Context, sessionID string) (err error) {
	op := s.opLogger.WithOperation(ctx, "close_review")
	defer func() { op.LogResult(sessionID, "review_session", err) }()

	session, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	openDrafts := len(session.Editing())
	questionCount := len(session.RenderAll())

	if err := s.registry.Close(sessionID); err != nil {
		return err
	}

	publish(ctx, s.publisher, s.logger, events.NewEvent(events.EventReviewClosed, events.ReviewSessionEvent{
		SessionID:     session.ID,
		PaperID:       session.PaperID,
		QuestionCount: questionCount,
		Fallback:      session.Fallback,
		OpenDrafts:    openDrafts,
	}))
	return nil
}

// ===== DRAFT EDITING =====

func (s *reviewService) BeginEdit(ctx context.Context, sessionID string, questionID models.NodeID) (*review.NodeView, error) {
	return s.withSession(sessionID, questionID, func(session *review.Session) error {
		return session.BeginEdit(questionID)
	})
}

func (s *reviewService) UpdateDraft(ctx context.Context, sessionID string, questionID models.NodeID, patch models.QuestionPatch) (*review.NodeView, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	return s.withSession(sessionID, questionID, func(session *review.Session) error {
		return session.UpdateDraft(questionID, patch)
	})
}

func (s *reviewService) UpdateNested(ctx context.Context, sessionID string, questionID models.NodeID, kind models.ChildKind, index int, patch models.QuestionPatch) (*review.NodeView, error) {
	if !kind.Valid() {
		return nil, NewValidationError("kind", "must be part or alternative", kind)
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	return s.withSession(sessionID, questionID, func(session *review.Session) error {
		return session.UpdateNested(questionID, kind, index, patch)
	})
}

func (s *reviewService) CancelEdit(ctx context.Context, sessionID string, questionID models.NodeID) (*review.NodeView, error) {
	return s.withSession(sessionID, questionID, func(session *review.Session) error {
		return session.CancelEdit(questionID)
	})
}

// Save validates the draft of questionID and hands it to the session's saver.
// A rejected draft stays in place so the reviewer can fix it and retry.
func (s *reviewService) Save(ctx context.Context, sessionID string, questionID models.NodeID) (result *SaveResult, err error) {
	op := s.opLogger.WithOperation(ctx, "save_question")
	defer func() { op.LogResult(string(questionID), "question", err) }()

	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	// The check runs on the exact request the session sends, under its lock.
	var warnings []string
	saved, err := session.SaveEditChecked(ctx, questionID, func(req *models.SaveQuestionRequest) error {
		if err := s.validator.Validate(req); err != nil {
			return err
		}
		warnings = s.validator.Question().Warnings(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.NewEvent(events.EventQuestionSaved, events.QuestionSavedEvent{
		SessionID:      session.ID,
		PaperID:        session.PaperID,
		QuestionID:     string(saved.ID),
		QuestionNumber: saved.QuestionNumber,
		MaxMarks:       saved.MaxMarks,
		KeyPointCount:  len(saved.KeyPoints),
		PartCount:      len(saved.SubQuestions),
		SavedAt:        time.Now().UTC(),
	}))

	view, err := session.Render(questionID)
	if err != nil {
		return nil, err
	}
	return &SaveResult{View: view, Warnings: warnings}, nil
}

func (s *reviewService) withSession(sessionID string, questionID models.NodeID, fn func(*review.Session) error) (*review.NodeView, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	view, err := session.Render(questionID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func renderSession(session *review.Session) *ReviewView {
	nodes := session.RenderAll()
	var score answerkey.ScoreSummary
	for _, n := range nodes {
		score.MaxMarks += n.Score.MaxMarks
		score.MarksAwarded += n.Score.MarksAwarded
		score.Graded = score.Graded || n.Score.Graded
	}
	return &ReviewView{
		SessionID: session.ID,
		PaperID:   session.PaperID,
		Fallback:  session.Fallback,
		Empty:     len(nodes) == 0,
		Questions: nodes,
		Score:     score,
	}
}

func newDefaultValidator() *validator.Validator {
	return validator.New()
}
