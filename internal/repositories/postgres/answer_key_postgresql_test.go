package postgres

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

func storedNode() *models.QuestionNode {
	return &models.QuestionNode{
		ID:             "q1",
		QuestionNumber: 1,
		MaxMarks:       10,
		QuestionText:   "Explain paging",
		ExpectedAnswer: "Fixed-size frames",
		KeyPoints:      []string{"frames", "page table"},
		MarkingScheme:  "5 + 5",
		SubQuestions: []*models.QuestionNode{
			{ID: "q1a", MaxMarks: 5, PartLabel: models.StringPtr("a"), KeyPoints: []string{}},
			{ID: "q1b", MaxMarks: 5, PartLabel: models.StringPtr("b"), KeyPoints: []string{}},
		},
		OrQuestions: []*models.QuestionNode{
			{ID: "q1-or", MaxMarks: 10, OptionA: models.StringPtr("x"), KeyPoints: []string{}},
		},
	}
}

func TestNodeToQuestion_RoundTripsThroughNormalize(t *testing.T) {
	row, err := nodeToQuestion("paper-1", storedNode())
	require.NoError(t, err)
	assert.Equal(t, "q1", row.ID)
	assert.Equal(t, "paper-1", row.PaperID)

	rec, err := questionToRecord(row)
	require.NoError(t, err)
	node := answerkey.Normalize(rec)

	assert.Equal(t, models.NodeID("q1"), node.ID)
	assert.Equal(t, []string{"frames", "page table"}, node.KeyPoints)
	require.Len(t, node.SubQuestions, 2)
	require.NotNil(t, node.SubQuestions[1].PartLabel)
	assert.Equal(t, "b", *node.SubQuestions[1].PartLabel)
	require.Len(t, node.OrQuestions, 1)
	assert.Equal(t, "x", *node.OrQuestions[0].OptionA)
}

func TestApplySaveRequest_OverwritesEditableFields(t *testing.T) {
	row := &models.AnswerKeyQuestion{ID: "q1", PaperID: "p", PartLabel: models.StringPtr("Q")}

	req := answerkey.BuildSaveRequest(storedNode())
	req.MarkingScheme = "new scheme"
	req.PartLabel = models.StringPtr("Q2")
	require.NoError(t, applySaveRequest(row, req))

	assert.Equal(t, "new scheme", row.MarkingScheme)
	require.NotNil(t, row.PartLabel)
	assert.Equal(t, "Q2", *row.PartLabel)
	assert.JSONEq(t, `["frames", "page table"]`, string(row.KeyPoints))

	req.PartLabel = nil
	require.NoError(t, applySaveRequest(row, req))
	assert.Nil(t, row.PartLabel)
}

func TestAnswerKeyQuestion_KeyedPerPaper(t *testing.T) {
	cache := &sync.Map{}

	questions, err := schema.Parse(&models.AnswerKeyQuestion{}, cache, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_id", "id"}, questions.PrimaryFieldDBNames)

	answers, err := schema.Parse(&models.StudentAnswer{}, cache, schema.NamingStrategy{})
	require.NoError(t, err)
	rel, ok := answers.Relationships.Relations["Question"]
	require.True(t, ok)
	require.Len(t, rel.References, 2)
	assert.Equal(t, "paper_id", rel.References[0].ForeignKey.DBName)
	assert.Equal(t, "question_id", rel.References[1].ForeignKey.DBName)
}

func TestQuestionScope_FiltersByPaperWhenKnown(t *testing.T) {
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{DSN: "host=localhost dbname=answer_keys"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	var row models.AnswerKeyQuestion
	stmt := questionScope(db, &models.SaveQuestionRequest{PaperID: "p2", QuestionID: "q1"}).First(&row).Statement
	assert.Contains(t, stmt.SQL.String(), "paper_id = $2")
	assert.Equal(t, []interface{}{"q1", "p2"}, stmt.Vars[:2])

	stmt = questionScope(db, &models.SaveQuestionRequest{QuestionID: "q1"}).First(&row).Statement
	assert.NotContains(t, stmt.SQL.String(), "paper_id =")
}

func TestMergeStudentAnswer(t *testing.T) {
	row, err := nodeToQuestion("p", storedNode())
	require.NoError(t, err)
	rec, err := questionToRecord(row)
	require.NoError(t, err)

	answer := &models.StudentAnswer{
		StudentID:    "s1",
		PaperID:      "p",
		QuestionID:   "q1",
		Answer:       "frames and tables",
		MarksAwarded: models.FloatPtr(7),
		PartAnswers:  datatypes.JSON(`{"q1b": {"marks_awarded": 3, "feedback": "partial"}}`),
	}
	require.NoError(t, mergeStudentAnswer(rec, answer))

	node := answerkey.Normalize(rec)
	require.NotNil(t, node.StudentAnswer)
	assert.Equal(t, "frames and tables", *node.StudentAnswer)
	assert.Equal(t, 7.0, *node.MarksAwarded)
	assert.Nil(t, node.SubQuestions[0].MarksAwarded)
	require.NotNil(t, node.SubQuestions[1].MarksAwarded)
	assert.Equal(t, 3.0, *node.SubQuestions[1].MarksAwarded)
	assert.Equal(t, "partial", *node.SubQuestions[1].Feedback)
}

func TestDecodeJSON_EmptyColumns(t *testing.T) {
	var out []interface{}
	assert.NoError(t, decodeJSON(nil, &out))
	assert.NoError(t, decodeJSON(datatypes.JSON("null"), &out))
	assert.Nil(t, out)
	assert.Error(t, decodeJSON(datatypes.JSON("{bad"), &out))
}

func TestMappingsToCells(t *testing.T) {
	rows := []models.OutcomeMapping{
		{CourseID: "c", CO: "CO1", PO: "PO1", Value: 2, CODescription: "Recall"},
		{CourseID: "c", CO: "CO1", PO: "PSO1", Value: 1},
	}

	cells := mappingsToCells(rows)

	assert.Equal(t, []matrix.Cell{
		{Row: "CO1", Column: "PO1", Value: 2, RowDescription: "Recall"},
		{Row: "CO1", Column: "PSO1", Value: 1},
	}, cells)
	assert.Equal(t, rows[0].CO, cellToMapping("c", cells[0]).CO)
}
