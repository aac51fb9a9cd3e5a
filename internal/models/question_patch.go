package models

// QuestionPatch is a partial update of a QuestionNode. Nil fields are left
// untouched; a non-nil slice pointer replaces the whole collection.
type QuestionPatch struct {
	QuestionNumber *int     `json:"question_number,omitempty" validate:"omitempty,min=0"`
	MaxMarks       *float64 `json:"max_marks,omitempty" validate:"omitempty,min=0"`
	MarksAwarded   *float64 `json:"marks_awarded,omitempty" validate:"omitempty,min=0"`

	QuestionText   *string `json:"question,omitempty"`
	ExpectedAnswer *string `json:"expected_answer,omitempty"`
	StudentAnswer  *string `json:"student_answer,omitempty"`
	Feedback       *string `json:"feedback,omitempty"`

	KeyPoints     *[]string `json:"key_points,omitempty"`
	MarkingScheme *string   `json:"marking_scheme,omitempty"`
	PartLabel     *string   `json:"part_label,omitempty"`

	OptionA *string `json:"option_a,omitempty"`
	OptionB *string `json:"option_b,omitempty"`
	OptionC *string `json:"option_c,omitempty"`
	OptionD *string `json:"option_d,omitempty"`

	SubQuestions *[]*QuestionNode `json:"sub_questions,omitempty" validate:"omitempty,dive,required"`
	OrQuestions  *[]*QuestionNode `json:"or_questions,omitempty" validate:"omitempty,dive,required"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p QuestionPatch) IsEmpty() bool {
	return p == (QuestionPatch{})
}

// ApplyTo shallow-merges the patch over a copy of n and returns the copy.
// Fields absent from the patch keep sharing n's values, including child slices.
// Nil entries of a replacement child slice are dropped.
func (p QuestionPatch) ApplyTo(n *QuestionNode) *QuestionNode {
	cp := *n
	if p.QuestionNumber != nil {
		cp.QuestionNumber = *p.QuestionNumber
	}
	if p.MaxMarks != nil {
		cp.MaxMarks = *p.MaxMarks
	}
	if p.MarksAwarded != nil {
		cp.MarksAwarded = cloneFloat(p.MarksAwarded)
	}
	if p.QuestionText != nil {
		cp.QuestionText = *p.QuestionText
	}
	if p.ExpectedAnswer != nil {
		cp.ExpectedAnswer = *p.ExpectedAnswer
	}
	if p.StudentAnswer != nil {
		cp.StudentAnswer = cloneString(p.StudentAnswer)
	}
	if p.Feedback != nil {
		cp.Feedback = cloneString(p.Feedback)
	}
	if p.KeyPoints != nil {
		cp.KeyPoints = append([]string{}, (*p.KeyPoints)...)
	}
	if p.MarkingScheme != nil {
		cp.MarkingScheme = *p.MarkingScheme
	}
	if p.PartLabel != nil {
		cp.PartLabel = cloneString(p.PartLabel)
	}
	if p.OptionA != nil {
		cp.OptionA = cloneString(p.OptionA)
	}
	if p.OptionB != nil {
		cp.OptionB = cloneString(p.OptionB)
	}
	if p.OptionC != nil {
		cp.OptionC = cloneString(p.OptionC)
	}
	if p.OptionD != nil {
		cp.OptionD = cloneString(p.OptionD)
	}
	if p.SubQuestions != nil {
		cp.SubQuestions = compactNodes(*p.SubQuestions)
	}
	if p.OrQuestions != nil {
		cp.OrQuestions = compactNodes(*p.OrQuestions)
	}
	return &cp
}

// compactNodes returns nodes without nil entries. It reuses nodes when there is
// nothing to drop.
func compactNodes(nodes []*QuestionNode) []*QuestionNode {
	for i, n := range nodes {
		if n != nil {
			continue
		}
		out := append(make([]*QuestionNode, 0, len(nodes)-1), nodes[:i]...)
		for _, rest := range nodes[i+1:] {
			if rest != nil {
				out = append(out, rest)
			}
		}
		return out
	}
	return nodes
}
