package answerkey

import (
	"testing"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_PartsCountAlternativesDoNot(t *testing.T) {
	node := &models.QuestionNode{
		MaxMarks: 10,
		SubQuestions: []*models.QuestionNode{
			{MaxMarks: 4, MarksAwarded: models.FloatPtr(3)},
			{MaxMarks: 6, MarksAwarded: models.FloatPtr(5)},
		},
		OrQuestions: []*models.QuestionNode{
			{MaxMarks: 10, MarksAwarded: models.FloatPtr(9)},
		},
	}

	s := Score(node)
	assert.Equal(t, 10.0, s.MaxMarks)
	assert.Equal(t, 8.0, s.MarksAwarded)
	assert.True(t, s.Graded)
}

func TestScore_LeafAndUngraded(t *testing.T) {
	s := Score(&models.QuestionNode{MaxMarks: 5})
	assert.Equal(t, ScoreSummary{MaxMarks: 5}, s)

	total := ScoreAll([]*models.QuestionNode{
		{MaxMarks: 5},
		{MaxMarks: 2, MarksAwarded: models.FloatPtr(1.5)},
	})
	assert.Equal(t, 7.0, total.MaxMarks)
	assert.Equal(t, 1.5, total.MarksAwarded)
	assert.True(t, total.Graded)
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "b", DisplayLabel(&models.QuestionNode{PartLabel: models.StringPtr("B")}, 0))
	assert.Equal(t, "c", DisplayLabel(&models.QuestionNode{PartLabel: models.StringPtr("(c)")}, 0))
	assert.Equal(t, "a", DisplayLabel(&models.QuestionNode{}, 0))
	assert.Equal(t, "d", DisplayLabel(&models.QuestionNode{PartLabel: models.StringPtr("  ")}, 3))
	assert.Equal(t, "aa", DisplayLabel(nil, 26))
}

func TestKeyPointColor_CyclesByIndex(t *testing.T) {
	assert.Equal(t, 0, KeyPointColor(0))
	assert.Equal(t, 1, KeyPointColor(KeyPointPalette+1))
	assert.Equal(t, 0, KeyPointColor(-3))
}

func TestSampleTree(t *testing.T) {
	tree := SampleTree()

	require.Len(t, tree, 1)
	root := tree[0]
	assert.Len(t, root.SubQuestions, 2)
	assert.Len(t, root.OrQuestions, 1)
	assert.Len(t, root.KeyPoints, 3)
	assert.Equal(t, 10.0, Score(root).MaxMarks)
}
