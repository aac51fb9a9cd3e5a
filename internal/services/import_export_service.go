package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/answer-key-service/internal/answerkey"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
)

const (
	answerKeySheet = "Answer Key"
	matrixSheet    = "Outcome Matrix"
	legendSheet    = "Outcomes"
)

// answerKeyColumns is the flat sheet layout shared by export and import. Nested
// parts and alternatives point at their parent through parent_id.
var answerKeyColumns = []string{
	"id", "parent_id", "kind", "question_number", "part_label", "max_marks",
	"question", "expected_answer", "key_points", "marking_scheme",
	"option_a", "option_b", "option_c", "option_d",
}

type importExportService struct {
	keys     AnswerKeyService
	matrices OutcomeMatrixService
	logger   *slog.Logger
}

func NewImportExportService(keys AnswerKeyService, matrices OutcomeMatrixService, logger *slog.Logger) ImportExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importExportService{
		keys:     keys,
		matrices: matrices,
		logger:   logger,
	}
}

// ===== EXPORT OPERATIONS =====

// ExportAnswerKey writes the answer key of a paper as one flat sheet, each
// nested question on its own row after its parent.
func (s *importExportService) ExportAnswerKey(ctx context.Context, paperID string) ([]byte, error) {
	paper, err := s.keys.GetPaper(ctx, paperID, false)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(answerKeySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := writeRow(f, answerKeySheet, 1, toInterfaces(answerKeyColumns)); err != nil {
		return nil, err
	}

	row := 2
	var walk func(n *models.QuestionNode, parent models.NodeID, kind models.ChildKind) error
	walk = func(n *models.QuestionNode, parent models.NodeID, kind models.ChildKind) error {
		if err := writeRow(f, answerKeySheet, row, nodeToRow(n, parent, kind)); err != nil {
			return err
		}
		row++
		for _, c := range n.Children() {
			if err := walk(c.Node, n.ID, c.Kind); err != nil {
				return err
			}
		}
		return nil
	}
	for _, q := range paper.Questions {
		if err := walk(q, "", ""); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Answer key exported", "paper_id", paperID, "rows", row-2)
	return buf.Bytes(), nil
}

// ExportMatrix writes the live outcome matrix of a course, summary rows
// included, plus a sheet describing every outcome.
func (s *importExportService) ExportMatrix(ctx context.Context, courseID string) ([]byte, error) {
	view, err := s.matrices.GetMatrix(ctx, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(matrixSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := []interface{}{"Outcome"}
	for _, c := range view.Columns {
		header = append(header, c.Label)
	}
	if err := writeRow(f, matrixSheet, 1, header); err != nil {
		return nil, err
	}
	for i, r := range view.Rows {
		values := []interface{}{r.Label}
		for _, v := range r.Values {
			values = append(values, v)
		}
		if err := writeRow(f, matrixSheet, i+2, values); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(legendSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRow(f, legendSheet, 1, []interface{}{"Outcome", "Kind", "Description"}); err != nil {
		return nil, err
	}
	legendRow := 2
	for _, r := range view.Rows {
		if r.Synthetic {
			continue
		}
		if err := writeRow(f, legendSheet, legendRow, []interface{}{r.Label, "course", r.Description}); err != nil {
			return nil, err
		}
		legendRow++
	}
	for _, c := range view.Columns {
		if err := writeRow(f, legendSheet, legendRow, []interface{}{c.Label, "program", c.Description}); err != nil {
			return nil, err
		}
		legendRow++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== IMPORT OPERATIONS =====

// ImportAnswerKey reads an answer key sheet (.xlsx or .csv) in the export
// layout and replaces the paper's answer key with it. Nothing is stored when
// any row is invalid; the result then lists every row error.
func (s *importExportService) ImportAnswerKey(ctx context.Context, paperID string, reader io.Reader, filename string) (*ImportResult, error) {
	s.logger.InfoContext(ctx, "Starting answer key import", "paper_id", paperID, "filename", filename)

	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		rows, err = readExcelRows(reader)
	case ".csv":
		rows, err = readCSVRows(reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	if _, ok := headerMap["max_marks"]; !ok {
		return nil, NewValidationError("headers", "missing required column: max_marks", "max_marks")
	}

	result := &ImportResult{PaperID: paperID, TotalRows: len(rows) - 1}
	nodes := s.buildTree(paperID, rows[1:], headerMap, result)
	if result.ErrorCount > 0 {
		s.logger.WarnContext(ctx, "Answer key import rejected",
			"paper_id", paperID,
			"total_rows", result.TotalRows,
			"error_count", result.ErrorCount)
		return result, nil
	}

	paper, err := s.keys.ImportPaper(ctx, paperID, nodes)
	if err != nil {
		return nil, err
	}
	result.Score = paper.Score

	s.logger.InfoContext(ctx, "Answer key import completed",
		"paper_id", paperID,
		"total_rows", result.TotalRows,
		"imported_count", result.ImportedCount)
	return result, nil
}

func (s *importExportService) buildTree(paperID string, rows [][]string, headerMap map[string]int, result *ImportResult) []*models.QuestionNode {
	var roots []*models.QuestionNode
	byID := make(map[models.NodeID]*models.QuestionNode)

	for i, row := range rows {
		rowNumber := i + 2
		if blankRow(row) {
			result.TotalRows--
			continue
		}

		rec := models.RawRecord{}
		for _, col := range answerKeyColumns {
			if v := cellValue(row, headerMap, col); v != "" {
				rec[col] = v
			}
		}

		rowErrors := validateImportRow(rec, rowNumber)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}

		node := answerkey.Normalize(rec)
		if node.ID == "" {
			node.ID = models.NodeID(fmt.Sprintf("%s-%d", paperID, rowNumber))
		}
		if _, dup := byID[node.ID]; dup {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNumber, Field: "id", Message: fmt.Sprintf("duplicate id %q", node.ID)})
			result.ErrorCount++
			continue
		}

		parentID := models.NodeID(cellValue(row, headerMap, "parent_id"))
		if parentID == "" {
			roots = append(roots, node)
		} else {
			parent, ok := byID[parentID]
			if !ok {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNumber, Field: "parent_id", Message: fmt.Sprintf("parent %q must appear on an earlier row", parentID)})
				result.ErrorCount++
				continue
			}
			kind := models.ChildKind(strings.ToLower(cellValue(row, headerMap, "kind")))
			if kind == "" {
				kind = models.KindPart
			}
			switch kind {
			case models.KindPart:
				parent.SubQuestions = append(parent.SubQuestions, node)
			case models.KindAlternative:
				parent.OrQuestions = append(parent.OrQuestions, node)
			default:
				result.Errors = append(result.Errors, ImportRowError{Row: rowNumber, Field: "kind", Message: "must be part or alternative"})
				result.ErrorCount++
				continue
			}
		}

		byID[node.ID] = node
		result.ImportedCount++
	}
	return roots
}

func validateImportRow(rec models.RawRecord, rowNumber int) []ImportRowError {
	var errs []ImportRowError

	for _, col := range []string{"max_marks", "question_number"} {
		raw, ok := rec[col].(string)
		if !ok {
			if col == "max_marks" {
				errs = append(errs, ImportRowError{Row: rowNumber, Field: col, Message: "is required"})
			}
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			errs = append(errs, ImportRowError{Row: rowNumber, Field: col, Message: fmt.Sprintf("%q is not a number", raw)})
			continue
		}
		if f < 0 {
			errs = append(errs, ImportRowError{Row: rowNumber, Field: col, Message: "must be at least 0"})
		}
	}

	if _, ok := rec["question"]; !ok {
		if _, ok := rec["expected_answer"]; !ok {
			errs = append(errs, ImportRowError{Row: rowNumber, Field: "question", Message: "question or expected_answer is required"})
		}
	}
	return errs
}

// ===== HELPERS =====

func readExcelRows(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %w", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if name == answerKeySheet {
			sheetName = name
			break
		}
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %w", ErrUnsupportedFormat, err)
	}
	return records, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func nodeToRow(n *models.QuestionNode, parent models.NodeID, kind models.ChildKind) []interface{} {
	return []interface{}{
		string(n.ID),
		string(parent),
		string(kind),
		n.QuestionNumber,
		derefString(n.PartLabel),
		n.MaxMarks,
		n.QuestionText,
		n.ExpectedAnswer,
		strings.Join(n.KeyPoints, "\n"),
		n.MarkingScheme,
		derefString(n.OptionA),
		derefString(n.OptionB),
		derefString(n.OptionC),
		derefString(n.OptionD),
	}
}

func cellValue(row []string, headerMap map[string]int, col string) string {
	i, ok := headerMap[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

