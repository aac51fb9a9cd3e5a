package answerkey

import (
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// ToWire renders n in the canonical snake_case wire shape. Normalize(ToWire(n))
// reproduces n.
func ToWire(n *models.QuestionNode) models.RawRecord {
	if n == nil {
		return nil
	}
	rec := models.RawRecord{
		"id":              string(n.ID),
		"question_number": float64(n.QuestionNumber),
		"max_marks":       n.MaxMarks,
		"question":        n.QuestionText,
		"expected_answer": n.ExpectedAnswer,
		"key_points":      stringsToAny(n.KeyPoints),
		"marking_scheme":  n.MarkingScheme,
		"sub_questions":   nodesToWire(n.SubQuestions),
		"or_questions":    nodesToWire(n.OrQuestions),
	}
	putOptional(rec, "marks_awarded", n.MarksAwarded)
	putOptionalString(rec, "student_answer", n.StudentAnswer)
	putOptionalString(rec, "feedback", n.Feedback)
	putOptionalString(rec, "part_label", n.PartLabel)
	putOptionalString(rec, "option_a", n.OptionA)
	putOptionalString(rec, "option_b", n.OptionB)
	putOptionalString(rec, "option_c", n.OptionC)
	putOptionalString(rec, "option_d", n.OptionD)
	return rec
}

// BuildSaveRequest assembles the save payload from a draft node. Missing text
// becomes "", missing numbers 0 and missing options stay nil. Nil children are
// skipped; a nil n yields nil.
func BuildSaveRequest(n *models.QuestionNode) *models.SaveQuestionRequest {
	if n == nil {
		return nil
	}
	req := &models.SaveQuestionRequest{
		QuestionID:     n.ID,
		QuestionNumber: n.QuestionNumber,
		MaxMarks:       n.MaxMarks,
		Question:       n.QuestionText,
		ExpectedAnswer: n.ExpectedAnswer,
		KeyPoints:      append([]string{}, n.KeyPoints...),
		MarkingScheme:  n.MarkingScheme,
		OptionA:        n.OptionA,
		OptionB:        n.OptionB,
		OptionC:        n.OptionC,
		OptionD:        n.OptionD,
		PartLabel:      n.PartLabel,
	}
	for _, sq := range n.SubQuestions {
		if sq != nil {
			req.SubQuestions = append(req.SubQuestions, BuildSaveRequest(sq))
		}
	}
	for _, oq := range n.OrQuestions {
		if oq != nil {
			req.OrQuestions = append(req.OrQuestions, BuildSaveRequest(oq))
		}
	}
	return req
}

// RequestToWire renders a save request as a raw record so backends can store it in
// the same shape they serve.
func RequestToWire(req *models.SaveQuestionRequest) models.RawRecord {
	rec := models.RawRecord{
		"id":              string(req.QuestionID),
		"question_number": float64(req.QuestionNumber),
		"max_marks":       req.MaxMarks,
		"question":        req.Question,
		"expected_answer": req.ExpectedAnswer,
		"key_points":      stringsToAny(req.KeyPoints),
		"marking_scheme":  req.MarkingScheme,
	}
	putOptionalString(rec, "option_a", req.OptionA)
	putOptionalString(rec, "option_b", req.OptionB)
	putOptionalString(rec, "option_c", req.OptionC)
	putOptionalString(rec, "option_d", req.OptionD)
	putOptionalString(rec, "part_label", req.PartLabel)

	subs := make([]interface{}, 0, len(req.SubQuestions))
	for _, sq := range req.SubQuestions {
		if sq == nil {
			continue
		}
		subs = append(subs, map[string]interface{}(RequestToWire(sq)))
	}
	rec["sub_questions"] = subs
	ors := make([]interface{}, 0, len(req.OrQuestions))
	for _, oq := range req.OrQuestions {
		if oq == nil {
			continue
		}
		ors = append(ors, map[string]interface{}(RequestToWire(oq)))
	}
	rec["or_questions"] = ors
	return rec
}

func nodesToWire(nodes []*models.QuestionNode) []interface{} {
	out := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, map[string]interface{}(ToWire(n)))
	}
	return out
}

func stringsToAny(ss []string) []interface{} {
	out := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func putOptional(rec models.RawRecord, key string, v *float64) {
	if v != nil {
		rec[key] = *v
	}
}

func putOptionalString(rec models.RawRecord, key string, v *string) {
	if v != nil {
		rec[key] = *v
	}
}
