package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

type AnswerKeyPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAnswerKeyPostgreSQL(db *gorm.DB) *AnswerKeyPostgreSQL {
	return &AnswerKeyPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

var (
	_ repositories.AnswerKeyBackend  = (*AnswerKeyPostgreSQL)(nil)
	_ repositories.AnswerKeyImporter = (*AnswerKeyPostgreSQL)(nil)
)

// FetchByPaper returns the stored questions of a paper ordered by question number.
func (r *AnswerKeyPostgreSQL) FetchByPaper(ctx context.Context, paperID string) ([]models.RawRecord, error) {
	var rows []models.AnswerKeyQuestion
	if err := r.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("question_number ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list answer key questions: %w", err)
	}

	recs := make([]models.RawRecord, 0, len(rows))
	for i := range rows {
		rec, err := questionToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// FetchStudentView returns the question merged with the student's graded answer.
// The paper is taken from the student's answer; a question with no stored
// answer resolves to the first paper carrying that id and is returned without
// student fields.
func (r *AnswerKeyPostgreSQL) FetchStudentView(ctx context.Context, studentID, questionID string) ([]models.RawRecord, error) {
	var answer models.StudentAnswer
	hasAnswer := true
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND question_id = ?", studentID, questionID).
		Order("paper_id ASC").
		First(&answer).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hasAnswer = false
	case err != nil:
		return nil, fmt.Errorf("failed to get student answer: %w", err)
	}

	query := r.db.WithContext(ctx).Where("id = ?", questionID)
	if hasAnswer {
		query = query.Where("paper_id = ?", answer.PaperID)
	}
	var question models.AnswerKeyQuestion
	if err := query.Order("paper_id ASC").First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.RawRecord{}, nil
		}
		return nil, fmt.Errorf("failed to get answer key question: %w", err)
	}
	rec, err := questionToRecord(&question)
	if err != nil {
		return nil, err
	}
	if !hasAnswer {
		return []models.RawRecord{rec}, nil
	}

	if err := mergeStudentAnswer(rec, &answer); err != nil {
		return nil, err
	}
	return []models.RawRecord{rec}, nil
}

// SaveQuestion overwrites the editable fields of an existing question. Requests
// without a paper id fall back to the first paper carrying the question id.
func (r *AnswerKeyPostgreSQL) SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.AnswerKeyQuestion
		if err := questionScope(tx, req).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("answer key question %s: %w", req.QuestionID, repositories.ErrNotFound)
			}
			return fmt.Errorf("failed to get answer key question: %w", err)
		}

		if err := applySaveRequest(&row, req); err != nil {
			return err
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to update answer key question: %w", err)
		}
		return nil
	})
}

// ReplacePaper deletes the stored questions of a paper and inserts nodes.
func (r *AnswerKeyPostgreSQL) ReplacePaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.helpers.getDB(tx).Where("paper_id = ?", paperID).Delete(&models.AnswerKeyQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear paper %s: %w", paperID, err)
		}
		if len(nodes) == 0 {
			return nil
		}

		rows := make([]*models.AnswerKeyQuestion, 0, len(nodes))
		for _, n := range nodes {
			row, err := nodeToQuestion(paperID, n)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		if err := r.helpers.getDB(tx).CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to insert answer key questions: %w", err)
		}
		return nil
	})
}

func questionScope(tx *gorm.DB, req *models.SaveQuestionRequest) *gorm.DB {
	query := tx.Where("id = ?", string(req.QuestionID))
	if req.PaperID != "" {
		query = query.Where("paper_id = ?", req.PaperID)
	}
	return query.Order("paper_id ASC")
}

func questionToRecord(q *models.AnswerKeyQuestion) (models.RawRecord, error) {
	rec := models.RawRecord{
		"id":              q.ID,
		"paper_id":        q.PaperID,
		"question_number": float64(q.QuestionNumber),
		"max_marks":       q.MaxMarks,
		"question":        q.Question,
		"expected_answer": q.ExpectedAnswer,
		"marking_scheme":  q.MarkingScheme,
	}
	for key, v := range map[string]*string{
		"part_label": q.PartLabel,
		"option_a":   q.OptionA,
		"option_b":   q.OptionB,
		"option_c":   q.OptionC,
		"option_d":   q.OptionD,
	} {
		if v != nil {
			rec[key] = *v
		}
	}

	var keyPoints []interface{}
	if err := decodeJSON(q.KeyPoints, &keyPoints); err != nil {
		return nil, err
	}
	rec["key_points"] = keyPoints

	var subs, ors []interface{}
	if err := decodeJSON(q.SubQuestions, &subs); err != nil {
		return nil, err
	}
	if err := decodeJSON(q.OrQuestions, &ors); err != nil {
		return nil, err
	}
	rec["sub_questions"] = subs
	rec["or_questions"] = ors
	return rec, nil
}

func applySaveRequest(row *models.AnswerKeyQuestion, req *models.SaveQuestionRequest) error {
	wire := answerkey.RequestToWire(req)

	keyPoints, err := toJSON(req.KeyPoints)
	if err != nil {
		return err
	}
	subs, err := toJSON(wire["sub_questions"])
	if err != nil {
		return err
	}
	ors, err := toJSON(wire["or_questions"])
	if err != nil {
		return err
	}

	row.QuestionNumber = req.QuestionNumber
	row.MaxMarks = req.MaxMarks
	row.Question = req.Question
	row.ExpectedAnswer = req.ExpectedAnswer
	row.KeyPoints = keyPoints
	row.MarkingScheme = req.MarkingScheme
	row.PartLabel = req.PartLabel
	row.OptionA = req.OptionA
	row.OptionB = req.OptionB
	row.OptionC = req.OptionC
	row.OptionD = req.OptionD
	row.SubQuestions = subs
	row.OrQuestions = ors
	return nil
}

func nodeToQuestion(paperID string, n *models.QuestionNode) (*models.AnswerKeyQuestion, error) {
	row := &models.AnswerKeyQuestion{
		ID:        string(n.ID),
		PaperID:   paperID,
		PartLabel: n.PartLabel,
	}
	if err := applySaveRequest(row, answerkey.BuildSaveRequest(n)); err != nil {
		return nil, err
	}
	return row, nil
}

type partAnswer struct {
	StudentAnswer *string  `json:"student_answer,omitempty"`
	MarksAwarded  *float64 `json:"marks_awarded,omitempty"`
	Feedback      *string  `json:"feedback,omitempty"`
}

// mergeStudentAnswer adds the student's answer to rec and to every child whose
// id appears in the answer's part map.
func mergeStudentAnswer(rec models.RawRecord, a *models.StudentAnswer) error {
	rec["student_answer"] = a.Answer
	if a.MarksAwarded != nil {
		rec["marks_awarded"] = *a.MarksAwarded
	}
	if a.Feedback != nil {
		rec["feedback"] = *a.Feedback
	}

	parts := map[string]partAnswer{}
	if err := decodeJSON(a.PartAnswers, &parts); err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}
	for _, key := range []string{"sub_questions", "or_questions"} {
		children, _ := rec[key].([]interface{})
		for _, c := range children {
			child, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			id := fmt.Sprint(child["id"])
			pa, ok := parts[id]
			if !ok {
				continue
			}
			if pa.StudentAnswer != nil {
				child["student_answer"] = *pa.StudentAnswer
			}
			if pa.MarksAwarded != nil {
				child["marks_awarded"] = *pa.MarksAwarded
			}
			if pa.Feedback != nil {
				child["feedback"] = *pa.Feedback
			}
		}
	}
	return nil
}
