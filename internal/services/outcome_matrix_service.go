package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/SAP-F-2025/answer-key-service/internal/events"
	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
	"github.com/SAP-F-2025/answer-key-service/internal/validator"
)

type courseMatrix struct {
	// edit serializes SetCell so a failed write can restore the value it replaced.
	edit sync.Mutex
	m    *matrix.Matrix
}

type outcomeMatrixService struct {
	source    repositories.OutcomeSource
	sink      repositories.OutcomeSink
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator

	mu      sync.Mutex
	courses map[string]*courseMatrix
}

// NewOutcomeMatrixService keeps one live matrix per course, loaded on first
// use. A nil sink keeps edits in memory only.
func NewOutcomeMatrixService(
	source repositories.OutcomeSource,
	sink repositories.OutcomeSink,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) OutcomeMatrixService {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = newDefaultValidator()
	}
	return &outcomeMatrixService{
		source:    source,
		sink:      sink,
		publisher: publisher,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "answer-key-service", Component: "outcome_matrix"}),
		validator: validator,
		courses:   make(map[string]*courseMatrix),
	}
}

func (s *outcomeMatrixService) GetMatrix(ctx context.Context, courseID string) (view *MatrixView, err error) {
	op := s.opLogger.WithOperation(ctx, "get_matrix")
	defer func() { op.LogResult(courseID, "outcome_matrix", err) }()

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return newMatrixView("", matrix.Build(nil)), nil
	}
	cm, err := s.load(ctx, courseID, false)
	if err != nil {
		return nil, err
	}
	return newMatrixView(courseID, cm.m), nil
}

// Reload drops the live matrix of the course and fetches it again.
func (s *outcomeMatrixService) Reload(ctx context.Context, courseID string) (view *MatrixView, err error) {
	op := s.opLogger.WithOperation(ctx, "reload_matrix")
	defer func() { op.LogResult(courseID, "outcome_matrix", err) }()

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return newMatrixView("", matrix.Build(nil)), nil
	}
	cm, err := s.load(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	return newMatrixView(courseID, cm.m), nil
}

// SetCell changes one base cell and persists it. TOTAL and AVERAGE follow on
// the next read. If the write fails the previous value is put back.
func (s *outcomeMatrixService) SetCell(ctx context.Context, courseID string, req *SetCellRequest) (view *MatrixView, err error) {
	op := s.opLogger.WithOperation(ctx, "set_matrix_cell")
	defer func() { op.LogResult(courseID, "outcome_matrix", err) }()

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, NewValidationError("course_id", "is required", courseID)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	cm, err := s.load(ctx, courseID, false)
	if err != nil {
		return nil, err
	}

	cm.edit.Lock()
	defer cm.edit.Unlock()

	previous := cm.m.ValueOf(req.Row, req.Column)
	if err := cm.m.SetStrength(req.Row, req.Column, int(req.Value)); err != nil {
		return nil, err
	}

	if s.sink != nil {
		cell := matrix.Cell{
			Row:               req.Row,
			Column:            req.Column,
			Value:             req.Value,
			RowDescription:    describe(cm.m.Rows(), req.Row),
			ColumnDescription: describe(cm.m.Columns(), req.Column),
		}
		if err := s.sink.SaveOutcomeMapping(ctx, courseID, cell); err != nil {
			if rerr := cm.m.SetStrength(req.Row, req.Column, int(previous)); rerr != nil {
				s.logger.ErrorContext(ctx, "failed to restore matrix cell",
					"course_id", courseID, "row", req.Row, "column", req.Column, "error", rerr)
			}
			return nil, fmt.Errorf("%w: outcome mapping %s/%s: %w", ErrPersistFailed, req.Row, req.Column, err)
		}
	}

	publish(ctx, s.publisher, s.logger, events.NewEvent(events.EventOutcomeCellUpdated, events.OutcomeCellUpdatedEvent{
		CourseID: courseID,
		Row:      req.Row,
		Column:   req.Column,
		Previous: previous,
		Value:    req.Value,
		Total:    cm.m.ValueOf(matrix.RowTotal, req.Column),
		Average:  cm.m.ValueOf(matrix.RowAverage, req.Column),
	}))
	return newMatrixView(courseID, cm.m), nil
}

func (s *outcomeMatrixService) load(ctx context.Context, courseID string, refresh bool) (*courseMatrix, error) {
	s.mu.Lock()
	cm, ok := s.courses[courseID]
	s.mu.Unlock()
	if ok && !refresh {
		return cm, nil
	}

	cells, err := s.source.FetchOutcomeMappings(ctx, courseID)
	if err != nil {
		return nil, fetchFailed(fmt.Sprintf("outcome mappings of course %s", courseID), err)
	}
	fresh := &courseMatrix{m: matrix.Build(cells)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.courses[courseID]; ok && !refresh {
		// Another request loaded the course first.
		return existing, nil
	}
	s.courses[courseID] = fresh
	return fresh, nil
}

func describe(headers []matrix.Header, label string) string {
	for _, h := range headers {
		if h.Label == label {
			return h.Description
		}
	}
	return ""
}

func newMatrixView(courseID string, m *matrix.Matrix) *MatrixView {
	return &MatrixView{
		CourseID: courseID,
		Empty:    len(m.BaseRows()) == 0 || len(m.Columns()) == 0,
		View:     m.View(),
	}
}
