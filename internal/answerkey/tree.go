package answerkey

import (
	"strings"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// KeyPointPalette is the number of colors key points cycle through.
const KeyPointPalette = 6

// KeyPointColor returns the palette slot for the key point at index. The mapping
// is positional, so reordering points changes their colors.
func KeyPointColor(index int) int {
	if index < 0 {
		return 0
	}
	return index % KeyPointPalette
}

// DisplayLabel returns the letter shown next to a child node: the first letter of
// its part label when present, otherwise the letter for its position.
func DisplayLabel(n *models.QuestionNode, index int) string {
	if n != nil && n.PartLabel != nil {
		label := strings.TrimSpace(*n.PartLabel)
		label = strings.Trim(label, "()")
		if label != "" {
			return strings.ToLower(label[:1])
		}
	}
	if index < 0 {
		index = 0
	}
	letters := ""
	for i := index; ; i = i/26 - 1 {
		letters = string(rune('a'+i%26)) + letters
		if i < 26 {
			break
		}
	}
	return letters
}

// ScoreSummary totals the marks of a tree.
type ScoreSummary struct {
	MaxMarks     float64 `json:"max_marks"`
	MarksAwarded float64 `json:"marks_awarded"`
	Graded       bool    `json:"graded"`
}

// Score totals a node. A node with mandatory parts scores as the sum of its parts;
// a node without parts scores itself. Alternatives never contribute.
func Score(n *models.QuestionNode) ScoreSummary {
	if n == nil {
		return ScoreSummary{}
	}
	if len(n.SubQuestions) == 0 {
		s := ScoreSummary{MaxMarks: n.MaxMarks}
		if n.MarksAwarded != nil {
			s.MarksAwarded = *n.MarksAwarded
			s.Graded = true
		}
		return s
	}

	var total ScoreSummary
	for _, sq := range n.SubQuestions {
		part := Score(sq)
		total.MaxMarks += part.MaxMarks
		total.MarksAwarded += part.MarksAwarded
		total.Graded = total.Graded || part.Graded
	}
	return total
}

// ScoreAll totals a list of top-level nodes.
func ScoreAll(nodes []*models.QuestionNode) ScoreSummary {
	var total ScoreSummary
	for _, n := range nodes {
		s := Score(n)
		total.MaxMarks += s.MaxMarks
		total.MarksAwarded += s.MarksAwarded
		total.Graded = total.Graded || s.Graded
	}
	return total
}

// SampleTree is the built-in tree shown when a paper has no answer key yet.
// It is for display only and must never be saved.
func SampleTree() []*models.QuestionNode {
	return NormalizeAll([]models.RawRecord{
		{
			"id":              "sample-1",
			"question_number": 1,
			"max_marks":       10,
			"question":        "Explain the difference between a process and a thread.",
			"expected_answer": "A process owns its address space and resources; threads share the address space of their process.",
			"key_points":      "- Separate address space per process\n- Threads share memory\n- Context switch cost differs",
			"marking_scheme":  "4 marks for definitions, 6 marks for comparison",
			"sub_questions": []interface{}{
				map[string]interface{}{
					"id":              "sample-1a",
					"question_number": 1,
					"part_label":      "a",
					"max_marks":       4,
					"question":        "Define a process.",
					"expected_answer": "A program in execution with its own address space.",
					"key_points":      []interface{}{"Program in execution", "Own address space"},
					"marking_scheme":  "2 marks per point",
				},
				map[string]interface{}{
					"id":              "sample-1b",
					"question_number": 1,
					"part_label":      "b",
					"max_marks":       6,
					"question":        "Compare context switching for processes and threads.",
					"expected_answer": "Thread switches avoid address-space changes and are cheaper.",
					"key_points":      []interface{}{"No TLB flush for threads", "Lower overhead"},
					"marking_scheme":  "3 marks per point",
				},
			},
			"or_questions": []interface{}{
				map[string]interface{}{
					"id":              "sample-1-or",
					"question_number": 1,
					"max_marks":       10,
					"question":        "Describe the life cycle of a process.",
					"expected_answer": "New, ready, running, waiting, terminated.",
					"key_points":      "• States\n• Transitions",
					"marking_scheme":  "5 marks per point",
				},
			},
		},
	})
}
