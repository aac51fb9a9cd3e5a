package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

const maxImportSize = 10 << 20

type AnswerKeyHandler struct {
	BaseHandler
	answerKeyService    services.AnswerKeyService
	importExportService services.ImportExportService
}

func NewAnswerKeyHandler(
	answerKeyService services.AnswerKeyService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *AnswerKeyHandler {
	return &AnswerKeyHandler{
		BaseHandler:         NewBaseHandler(logger),
		answerKeyService:    answerKeyService,
		importExportService: importExportService,
	}
}

// GetPaper returns the normalized answer key of a paper
// @Summary Get answer key
// @Tags answer-keys
// @Produce json
// @Param paper_id path string true "Paper ID"
// @Param fallback query bool false "Show the sample answer key when the paper has none"
// @Success 200 {object} services.PaperView
// @Failure 502 {object} ErrorResponse
// @Router /answer-keys/papers/{paper_id} [get]
func (h *AnswerKeyHandler) GetPaper(c *gin.Context) {
	paperID := ParseStringIDParam(c, "paper_id")
	if paperID == "" {
		return
	}
	fallback := parseBoolQuery(c, "fallback", false)

	h.LogRequest(c, "Getting answer key", "paper_id", paperID, "fallback", fallback)

	view, err := h.answerKeyService.GetPaper(c.Request.Context(), paperID, fallback)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetStudentView returns one question with the student's answer and marks
// @Summary Get student answer view
// @Tags answer-keys
// @Produce json
// @Param student_id path string true "Student ID"
// @Param question_id path string true "Question ID"
// @Success 200 {object} services.PaperView
// @Failure 502 {object} ErrorResponse
// @Router /answer-keys/students/{student_id}/questions/{question_id} [get]
func (h *AnswerKeyHandler) GetStudentView(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	h.LogRequest(c, "Getting student answer view", "student_id", studentID, "question_id", questionID)

	view, err := h.answerKeyService.GetStudentView(c.Request.Context(), studentID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExportPaper downloads the answer key as an xlsx sheet
// @Summary Export answer key
// @Tags answer-keys
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param paper_id path string true "Paper ID"
// @Router /answer-keys/papers/{paper_id}/export [get]
func (h *AnswerKeyHandler) ExportPaper(c *gin.Context) {
	paperID := ParseStringIDParam(c, "paper_id")
	if paperID == "" {
		return
	}

	h.LogRequest(c, "Exporting answer key", "paper_id", paperID)

	data, err := h.importExportService.ExportAnswerKey(c.Request.Context(), paperID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("answer-key-%s.xlsx", paperID), data)
}

// ImportPaper replaces the answer key of a paper from an uploaded xlsx or csv file
// @Summary Import answer key
// @Tags answer-keys
// @Accept multipart/form-data
// @Produce json
// @Param paper_id path string true "Paper ID"
// @Param file formData file true "Answer key sheet"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} services.ImportResult
// @Router /answer-keys/papers/{paper_id}/import [post]
func (h *AnswerKeyHandler) ImportPaper(c *gin.Context) {
	paperID := ParseStringIDParam(c, "paper_id")
	if paperID == "" {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid upload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Importing answer key", "paper_id", paperID, "filename", fileHeader.Filename, "size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to read upload", err)
		return
	}
	defer file.Close()

	result, err := h.importExportService.ImportAnswerKey(c.Request.Context(), paperID, file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if result.ErrorCount > 0 {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
