package models

// NodeID identifies a question node within its owning collection. Integer ids coming
// from the wire are rendered in base 10 so the same record always yields the same id.
type NodeID string

// ChildKind distinguishes the two child collections of a QuestionNode.
type ChildKind string

const (
	// KindPart marks a mandatory, separately scored sub-question.
	KindPart ChildKind = "part"
	// KindAlternative marks a mutually exclusive OR-question.
	KindAlternative ChildKind = "alternative"
)

// Valid reports whether k names one of the two child collections.
func (k ChildKind) Valid() bool {
	return k == KindPart || k == KindAlternative
}

// QuestionNode is the canonical answer-key record: a main question with its
// mandatory parts (SubQuestions) and its alternatives (OrQuestions).
//
// A node exclusively owns its child slices. Code that changes a child builds a new
// parent (see answerkey.PatchNested) instead of writing through a shared pointer.
type QuestionNode struct {
	ID             NodeID   `json:"id"`
	QuestionNumber int      `json:"question_number"`
	MaxMarks       float64  `json:"max_marks"`
	MarksAwarded   *float64 `json:"marks_awarded,omitempty"`

	QuestionText   string  `json:"question"`
	ExpectedAnswer string  `json:"expected_answer"`
	StudentAnswer  *string `json:"student_answer,omitempty"`
	Feedback       *string `json:"feedback,omitempty"`

	KeyPoints     []string `json:"key_points"`
	MarkingScheme string   `json:"marking_scheme"`
	PartLabel     *string  `json:"part_label,omitempty"`

	// Multiple-choice options
	OptionA *string `json:"option_a,omitempty"`
	OptionB *string `json:"option_b,omitempty"`
	OptionC *string `json:"option_c,omitempty"`
	OptionD *string `json:"option_d,omitempty"`

	SubQuestions []*QuestionNode `json:"sub_questions"`
	OrQuestions  []*QuestionNode `json:"or_questions"`
}

// Child is a tagged view of one child node.
type Child struct {
	Kind  ChildKind     `json:"kind"`
	Index int           `json:"index"`
	Node  *QuestionNode `json:"node"`
}

// Children returns every child tagged with its role, parts first.
func (n *QuestionNode) Children() []Child {
	if n == nil {
		return nil
	}
	children := make([]Child, 0, len(n.SubQuestions)+len(n.OrQuestions))
	for i, sq := range n.SubQuestions {
		children = append(children, Child{Kind: KindPart, Index: i, Node: sq})
	}
	for i, oq := range n.OrQuestions {
		children = append(children, Child{Kind: KindAlternative, Index: i, Node: oq})
	}
	return children
}

// Collection returns the child slice for kind. The slice is the node's own; callers
// must not write to it.
func (n *QuestionNode) Collection(kind ChildKind) []*QuestionNode {
	switch kind {
	case KindPart:
		return n.SubQuestions
	case KindAlternative:
		return n.OrQuestions
	}
	return nil
}

// WithCollection returns a shallow copy of n whose kind collection is replaced.
func (n *QuestionNode) WithCollection(kind ChildKind, nodes []*QuestionNode) *QuestionNode {
	cp := *n
	switch kind {
	case KindPart:
		cp.SubQuestions = nodes
	case KindAlternative:
		cp.OrQuestions = nodes
	}
	return &cp
}

// HasOptions reports whether the node is shaped like a multiple-choice item.
func (n *QuestionNode) HasOptions() bool {
	return n.OptionA != nil || n.OptionB != nil || n.OptionC != nil || n.OptionD != nil
}

// Clone returns a deep copy of the node and all of its descendants.
func (n *QuestionNode) Clone() *QuestionNode {
	if n == nil {
		return nil
	}
	cp := *n
	cp.MarksAwarded = cloneFloat(n.MarksAwarded)
	cp.StudentAnswer = cloneString(n.StudentAnswer)
	cp.Feedback = cloneString(n.Feedback)
	cp.PartLabel = cloneString(n.PartLabel)
	cp.OptionA = cloneString(n.OptionA)
	cp.OptionB = cloneString(n.OptionB)
	cp.OptionC = cloneString(n.OptionC)
	cp.OptionD = cloneString(n.OptionD)
	if n.KeyPoints != nil {
		cp.KeyPoints = append([]string(nil), n.KeyPoints...)
	}
	cp.SubQuestions = cloneNodes(n.SubQuestions)
	cp.OrQuestions = cloneNodes(n.OrQuestions)
	return &cp
}

func cloneNodes(nodes []*QuestionNode) []*QuestionNode {
	if nodes == nil {
		return nil
	}
	out := make([]*QuestionNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}
