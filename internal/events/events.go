package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the service emits
type EventType string

const (
	// Answer-key events
	EventQuestionSaved EventType = "answer_key.question_saved"
	EventPaperImported EventType = "answer_key.paper_imported"

	// Review session events
	EventReviewOpened EventType = "review.opened"
	EventReviewClosed EventType = "review.closed"

	// Outcome matrix events
	EventOutcomeCellUpdated EventType = "outcome_matrix.cell_updated"
)

const (
	eventSource  = "answer-key-service"
	eventVersion = "1.0"
)

// Event is the envelope every published event travels in
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Answer-key event payloads

type QuestionSavedEvent struct {
	SessionID      string    `json:"session_id"`
	PaperID        string    `json:"paper_id"`
	QuestionID     string    `json:"question_id"`
	QuestionNumber int       `json:"question_number"`
	MaxMarks       float64   `json:"max_marks"`
	KeyPointCount  int       `json:"key_point_count"`
	PartCount      int       `json:"part_count"`
	SavedAt        time.Time `json:"saved_at"`
}

type PaperImportedEvent struct {
	PaperID       string  `json:"paper_id"`
	QuestionCount int     `json:"question_count"`
	TotalMarks    float64 `json:"total_marks"`
}

// Review session event payloads

type ReviewSessionEvent struct {
	SessionID     string `json:"session_id"`
	PaperID       string `json:"paper_id"`
	QuestionCount int    `json:"question_count"`
	Fallback      bool   `json:"fallback"`
	OpenDrafts    int    `json:"open_drafts,omitempty"`
}

// Outcome matrix event payloads

type OutcomeCellUpdatedEvent struct {
	CourseID string  `json:"course_id"`
	Row      string  `json:"row"`
	Column   string  `json:"column"`
	Previous float64 `json:"previous"`
	Value    float64 `json:"value"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
}
