// Package answerkey turns backend answer-key records into canonical question trees
// and provides the immutable update helpers used by review sessions.
package answerkey

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// field names of the canonical node, used as keys of the wire mapping table
const (
	fieldID             = "id"
	fieldQuestionNumber = "questionNumber"
	fieldMaxMarks       = "maxMarks"
	fieldMarksAwarded   = "marksAwarded"
	fieldQuestionText   = "questionText"
	fieldExpectedAnswer = "expectedAnswer"
	fieldStudentAnswer  = "studentAnswer"
	fieldFeedback       = "feedback"
	fieldKeyPoints      = "keyPoints"
	fieldMarkingScheme  = "markingScheme"
	fieldPartLabel      = "partLabel"
	fieldOptionA        = "optionA"
	fieldOptionB        = "optionB"
	fieldOptionC        = "optionC"
	fieldOptionD        = "optionD"
	fieldSubQuestions   = "subQuestions"
	fieldOrQuestions    = "orQuestions"
)

// wireKeys maps each canonical field to its candidate wire keys. The first candidate
// holding a non-null value wins.
var wireKeys = map[string][]string{
	fieldID:             {"id", "question_id", "questionId"},
	fieldQuestionNumber: {"question_number", "questionNumber", "q_no"},
	fieldMaxMarks:       {"max_marks", "maxMarks"},
	fieldMarksAwarded:   {"marks_awarded", "marksAwarded", "marks_obtained"},
	fieldQuestionText:   {"question", "question_text", "questionText"},
	fieldExpectedAnswer: {"expected_answer", "expectedAnswer"},
	fieldStudentAnswer:  {"student_answer", "studentAnswer"},
	fieldFeedback:       {"feedback", "ai_feedback"},
	fieldKeyPoints:      {"key_points", "keyPoints"},
	fieldMarkingScheme:  {"marking_scheme", "markingScheme"},
	fieldPartLabel:      {"part_label", "partLabel", "part"},
	fieldOptionA:        {"option_a", "optionA"},
	fieldOptionB:        {"option_b", "optionB"},
	fieldOptionC:        {"option_c", "optionC"},
	fieldOptionD:        {"option_d", "optionD"},
	fieldSubQuestions:   {"sub_questions", "subQuestions"},
	fieldOrQuestions:    {"or_questions", "orQuestions"},
}

// keyPointSeparator splits a flattened key-points string on newlines, bullets and
// hyphens followed by whitespace. A hyphen glued to the next character ("-5 V")
// is text, not a marker.
var keyPointSeparator = regexp.MustCompile(`\r?\n|•|-\s`)

// Normalize converts one backend record into a QuestionNode. Missing or ill-typed
// fields fall back to zero values; it never fails.
func Normalize(rec models.RawRecord) *models.QuestionNode {
	if rec == nil {
		rec = models.RawRecord{}
	}

	node := &models.QuestionNode{
		ID:             models.NodeID(asString(lookup(rec, fieldID))),
		QuestionNumber: int(asNumber(lookup(rec, fieldQuestionNumber))),
		MaxMarks:       asNumber(lookup(rec, fieldMaxMarks)),
		MarksAwarded:   asOptionalNumber(lookup(rec, fieldMarksAwarded)),
		QuestionText:   asString(lookup(rec, fieldQuestionText)),
		ExpectedAnswer: asString(lookup(rec, fieldExpectedAnswer)),
		StudentAnswer:  asOptionalString(lookup(rec, fieldStudentAnswer)),
		Feedback:       asOptionalString(lookup(rec, fieldFeedback)),
		KeyPoints:      ParseKeyPoints(lookup(rec, fieldKeyPoints)),
		MarkingScheme:  asString(lookup(rec, fieldMarkingScheme)),
		PartLabel:      asOptionalString(lookup(rec, fieldPartLabel)),
		OptionA:        asOptionalString(lookup(rec, fieldOptionA)),
		OptionB:        asOptionalString(lookup(rec, fieldOptionB)),
		OptionC:        asOptionalString(lookup(rec, fieldOptionC)),
		OptionD:        asOptionalString(lookup(rec, fieldOptionD)),
		SubQuestions:   normalizeChildren(lookup(rec, fieldSubQuestions)),
		OrQuestions:    normalizeChildren(lookup(rec, fieldOrQuestions)),
	}
	return node
}

// NormalizeAll normalizes a response list, preserving order. Top-level records
// without an id get a positional one (see AssignMissingIDs).
func NormalizeAll(recs []models.RawRecord) []*models.QuestionNode {
	nodes := make([]*models.QuestionNode, 0, len(recs))
	for _, rec := range recs {
		nodes = append(nodes, Normalize(rec))
	}
	AssignMissingIDs(nodes)
	return nodes
}

// AssignMissingIDs gives every node with an empty id the id "q-<position>",
// counting from 1. An id already used in the list gets a "-2", "-3"... suffix.
// Ids written back through ToWire survive the next normalization unchanged.
func AssignMissingIDs(nodes []*models.QuestionNode) {
	taken := make(map[models.NodeID]bool, len(nodes))
	for _, n := range nodes {
		if n != nil && n.ID != "" {
			taken[n.ID] = true
		}
	}
	for i, n := range nodes {
		if n == nil || n.ID != "" {
			continue
		}
		id := models.NodeID(fmt.Sprintf("q-%d", i+1))
		for k := 2; taken[id]; k++ {
			id = models.NodeID(fmt.Sprintf("q-%d-%d", i+1, k))
		}
		n.ID = id
		taken[id] = true
	}
}

// ParseKeyPoints accepts either a delimited string or a list and returns the
// non-blank points in their original order.
func ParseKeyPoints(v interface{}) []string {
	points := []string{}
	switch val := v.(type) {
	case nil:
		return points
	case string:
		for _, part := range keyPointSeparator.Split(val, -1) {
			part = strings.TrimSpace(part)
			if part != "" && part != "-" {
				points = append(points, part)
			}
		}
	case []string:
		for _, p := range val {
			if p != "" {
				points = append(points, p)
			}
		}
	case []interface{}:
		for _, p := range val {
			if isFalsy(p) {
				continue
			}
			points = append(points, asString(p))
		}
	}
	return points
}

func normalizeChildren(v interface{}) []*models.QuestionNode {
	children := []*models.QuestionNode{}
	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if rec, ok := asRecord(item); ok {
				children = append(children, Normalize(rec))
			}
		}
	case []models.RawRecord:
		for _, rec := range val {
			children = append(children, Normalize(rec))
		}
	case []map[string]interface{}:
		for _, rec := range val {
			children = append(children, Normalize(rec))
		}
	}
	return children
}

func lookup(rec models.RawRecord, field string) interface{} {
	for _, key := range wireKeys[field] {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asRecord(v interface{}) (models.RawRecord, bool) {
	switch val := v.(type) {
	case models.RawRecord:
		return val, true
	case map[string]interface{}:
		return models.RawRecord(val), true
	}
	return nil, false
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprint(v)
}

func asOptionalString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

func asNumber(v interface{}) float64 {
	f, _ := toFloat(v)
	return f
}

func asOptionalNumber(v interface{}) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case uint:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isFalsy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	}
	return false
}
