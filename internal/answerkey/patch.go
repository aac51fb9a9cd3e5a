package answerkey

import (
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

// Step addresses one child: the collection it lives in and its index there.
type Step struct {
	Kind  models.ChildKind `json:"kind"`
	Index int              `json:"index"`
}

// Path addresses a descendant by the chain of steps from a root node.
type Path []Step

// PatchNested returns a new parent whose child at (kind, index) is replaced by
// patch merged over it. Every other child is reused as is and parent is never
// mutated. An out-of-range index returns parent unchanged.
func PatchNested(parent *models.QuestionNode, kind models.ChildKind, index int, patch models.QuestionPatch) *models.QuestionNode {
	return UpdateAt(parent, Path{{Kind: kind, Index: index}}, patch.ApplyTo)
}

// UpdateAt replaces the node at path with fn(node), rebuilding only the nodes on
// the path. An empty path applies fn to root itself. Any step that does not
// resolve returns root unchanged.
func UpdateAt(root *models.QuestionNode, path Path, fn func(*models.QuestionNode) *models.QuestionNode) *models.QuestionNode {
	if root == nil {
		return nil
	}
	if len(path) == 0 {
		return fn(root)
	}

	step := path[0]
	if !step.Kind.Valid() {
		return root
	}
	children := root.Collection(step.Kind)
	if step.Index < 0 || step.Index >= len(children) {
		return root
	}

	child := children[step.Index]
	updated := UpdateAt(child, path[1:], fn)
	if updated == child {
		return root
	}

	next := make([]*models.QuestionNode, len(children))
	copy(next, children)
	next[step.Index] = updated
	return root.WithCollection(step.Kind, next)
}

// NodeAt resolves path from root, returning nil when a step does not resolve.
func NodeAt(root *models.QuestionNode, path Path) *models.QuestionNode {
	node := root
	for _, step := range path {
		if node == nil {
			return nil
		}
		children := node.Collection(step.Kind)
		if step.Index < 0 || step.Index >= len(children) {
			return nil
		}
		node = children[step.Index]
	}
	return node
}
