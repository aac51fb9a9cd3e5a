// Package review keeps the per-question edit state of an answer-key review: an
// immutable baseline, at most one draft per question, and the save round-trip.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

var (
	ErrNodeNotFound     = errors.New("question not found in review session")
	ErrNotEditing       = errors.New("question is not being edited")
	ErrSaveInFlight     = errors.New("question save already in progress")
	ErrFallbackReadOnly = errors.New("sample answer key cannot be saved")
	ErrInvalidChildKind = errors.New("invalid child kind")
)

// Mode is the edit state of one question in a session.
type Mode string

const (
	ModeReadOnly Mode = "read_only"
	ModeEditing  Mode = "editing"
	ModeSaving   Mode = "saving"
)

const defaultSaveMessage = "failed to save question"

// SaveError is returned by SaveEdit when the backend rejects a save. The draft
// is left in place so the user can retry or cancel.
type SaveError struct {
	ID      models.NodeID
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save question %s: %s: %v", e.ID, e.Message, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// humanMessager is implemented by backend errors that carry a message meant for
// the person editing.
type humanMessager interface {
	HumanMessage() string
}

func newSaveError(id models.NodeID, err error) *SaveError {
	msg := defaultSaveMessage
	var hm humanMessager
	if errors.As(err, &hm) && hm.HumanMessage() != "" {
		msg = hm.HumanMessage()
	}
	return &SaveError{ID: id, Message: msg, Err: err}
}

// Session is one mounted review of a set of top-level questions.
type Session struct {
	ID        string
	PaperID   string
	Fallback  bool
	CreatedAt time.Time

	saver repositories.QuestionSaver

	mu       sync.Mutex
	order    []models.NodeID
	baseline map[models.NodeID]*models.QuestionNode
	drafts   map[models.NodeID]*models.QuestionNode
	saving   map[models.NodeID]bool
}

// NewSession creates a session over nodes. Nodes sharing an id keep the first
// occurrence. A fallback session renders normally but refuses to save.
func NewSession(id, paperID string, nodes []*models.QuestionNode, fallback bool, saver repositories.QuestionSaver) *Session {
	s := &Session{
		ID:        id,
		PaperID:   paperID,
		Fallback:  fallback,
		CreatedAt: time.Now(),
		saver:     saver,
		baseline:  make(map[models.NodeID]*models.QuestionNode, len(nodes)),
		drafts:    make(map[models.NodeID]*models.QuestionNode),
		saving:    make(map[models.NodeID]bool),
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, dup := s.baseline[n.ID]; dup {
			continue
		}
		s.order = append(s.order, n.ID)
		s.baseline[n.ID] = n
	}
	return s
}

// BeginEdit starts a draft as a deep copy of the baseline. Calling it on a
// question already being edited keeps the existing draft.
func (s *Session) BeginEdit(id models.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.baseline[id]
	if !ok {
		return ErrNodeNotFound
	}
	if _, editing := s.drafts[id]; editing {
		return nil
	}
	s.drafts[id] = base.Clone()
	return nil
}

// UpdateDraft merges patch into the draft of id.
func (s *Session) UpdateDraft(id models.NodeID, patch models.QuestionPatch) error {
	return s.mutateDraft(id, patch.ApplyTo)
}

// UpdateNested patches one child of the draft of id. An out-of-range index
// leaves the draft as it is.
func (s *Session) UpdateNested(id models.NodeID, kind models.ChildKind, index int, patch models.QuestionPatch) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChildKind, kind)
	}
	return s.mutateDraft(id, func(draft *models.QuestionNode) *models.QuestionNode {
		next := answerkey.PatchNested(draft, kind, index, patch)
		children := next.Collection(kind)
		switch kind {
		case models.KindPart:
			return models.QuestionPatch{SubQuestions: &children}.ApplyTo(draft)
		default:
			return models.QuestionPatch{OrQuestions: &children}.ApplyTo(draft)
		}
	})
}

// UpdateDraftAt merges patch into the descendant of the draft addressed by path.
func (s *Session) UpdateDraftAt(id models.NodeID, path answerkey.Path, patch models.QuestionPatch) error {
	return s.mutateDraft(id, func(draft *models.QuestionNode) *models.QuestionNode {
		return answerkey.UpdateAt(draft, path, patch.ApplyTo)
	})
}

func (s *Session) mutateDraft(id models.NodeID, fn func(*models.QuestionNode) *models.QuestionNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.baseline[id]; !ok {
		return ErrNodeNotFound
	}
	draft, ok := s.drafts[id]
	if !ok {
		return ErrNotEditing
	}
	if s.saving[id] {
		return ErrSaveInFlight
	}
	s.drafts[id] = fn(draft)
	return nil
}

// CancelEdit drops the draft of id. It is a no-op for a question that is not
// being edited.
func (s *Session) CancelEdit(id models.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.baseline[id]; !ok {
		return ErrNodeNotFound
	}
	if s.saving[id] {
		return ErrSaveInFlight
	}
	delete(s.drafts, id)
	return nil
}

// SaveCheck inspects the request built from a draft before it is sent. A
// non-nil error aborts the save and leaves the question in editing mode.
type SaveCheck func(req *models.SaveQuestionRequest) error

// SaveEdit sends the draft of id to the saver and waits for the result. On
// success the draft becomes the new baseline and is returned. On failure the
// draft is kept and a *SaveError is returned.
func (s *Session) SaveEdit(ctx context.Context, id models.NodeID) (*models.QuestionNode, error) {
	return s.SaveEditChecked(ctx, id, nil)
}

// SaveEditChecked is SaveEdit with check run on the exact request that will be
// sent. check runs under the session lock, so no draft update can slip in
// between the check and the save. Errors from check are returned unwrapped.
func (s *Session) SaveEditChecked(ctx context.Context, id models.NodeID, check SaveCheck) (saved *models.QuestionNode, err error) {
	s.mu.Lock()
	if _, ok := s.baseline[id]; !ok {
		s.mu.Unlock()
		return nil, ErrNodeNotFound
	}
	draft, ok := s.drafts[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotEditing
	}
	if s.saving[id] {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if s.Fallback || s.saver == nil {
		s.mu.Unlock()
		return nil, ErrFallbackReadOnly
	}
	req := answerkey.BuildSaveRequest(draft)
	req.PaperID = s.PaperID
	if check != nil {
		if err := check(req); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.saving[id] = true
	s.mu.Unlock()

	// Runs even if the saver panics, so the id never stays in saving mode.
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.saving, id)
		if err == nil && saved != nil {
			s.baseline[id] = draft
			delete(s.drafts, id)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, newSaveError(id, err)
	}
	if err := s.saver.SaveQuestion(ctx, req); err != nil {
		return nil, newSaveError(id, err)
	}
	return draft.Clone(), nil
}

// NodeView is the rendered state of one top-level question.
type NodeView struct {
	ID      models.NodeID          `json:"id"`
	Mode    Mode                   `json:"mode"`
	Node    *models.QuestionNode   `json:"node"`
	CanSave bool                   `json:"can_save"`
	Score   answerkey.ScoreSummary `json:"score"`
}

// Render returns the view of id: the draft while editing, the baseline
// otherwise. The returned node is a copy.
func (s *Session) Render(id models.NodeID) (NodeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.baseline[id]; !ok {
		return NodeView{}, ErrNodeNotFound
	}
	return s.renderLocked(id), nil
}

// RenderAll renders every question in its original order.
func (s *Session) RenderAll() []NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]NodeView, 0, len(s.order))
	for _, id := range s.order {
		views = append(views, s.renderLocked(id))
	}
	return views
}

func (s *Session) renderLocked(id models.NodeID) NodeView {
	mode := ModeReadOnly
	node := s.baseline[id]
	if draft, ok := s.drafts[id]; ok {
		mode = ModeEditing
		node = draft
		if s.saving[id] {
			mode = ModeSaving
		}
	}
	return NodeView{
		ID:      id,
		Mode:    mode,
		Node:    node.Clone(),
		CanSave: mode == ModeEditing && !s.Fallback,
		Score:   answerkey.Score(node),
	}
}

// ModeOf reports the edit state of id.
func (s *Session) ModeOf(id models.NodeID) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.saving[id]:
		return ModeSaving
	case s.drafts[id] != nil:
		return ModeEditing
	}
	return ModeReadOnly
}

// Baseline returns a copy of the saved version of id.
func (s *Session) Baseline(id models.NodeID) (*models.QuestionNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.baseline[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n.Clone(), nil
}

// Editing returns the ids that currently hold a draft, in display order.
func (s *Session) Editing() []models.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []models.NodeID
	for _, id := range s.order {
		if _, ok := s.drafts[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Session) hasSaveInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saving) > 0
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = make(map[models.NodeID]*models.QuestionNode)
	s.saving = make(map[models.NodeID]bool)
}
