package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

type MatrixHandler struct {
	BaseHandler
	matrixService       services.OutcomeMatrixService
	importExportService services.ImportExportService
}

func NewMatrixHandler(
	matrixService services.OutcomeMatrixService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *MatrixHandler {
	return &MatrixHandler{
		BaseHandler:         NewBaseHandler(logger),
		matrixService:       matrixService,
		importExportService: importExportService,
	}
}

// GetMatrix returns the CO/PO matrix of a course with TOTAL and AVERAGE rows
// @Summary Get outcome matrix
// @Tags outcome-matrix
// @Produce json
// @Param course_id path string true "Course ID"
// @Success 200 {object} services.MatrixView
// @Failure 502 {object} ErrorResponse
// @Router /courses/{course_id}/outcome-matrix [get]
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}

	view, err := h.matrixService.GetMatrix(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetCell changes the strength of one course/program outcome pair
// @Summary Set matrix cell
// @Tags outcome-matrix
// @Accept json
// @Produce json
// @Param course_id path string true "Course ID"
// @Param cell body services.SetCellRequest true "Cell to change"
// @Success 200 {object} services.MatrixView
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /courses/{course_id}/outcome-matrix/cells [put]
func (h *MatrixHandler) SetCell(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}

	var req services.SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Setting matrix cell", "course_id", courseID, "row", req.Row, "column", req.Column, "value", req.Value)

	view, err := h.matrixService.SetCell(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ReloadMatrix discards the live matrix and fetches it again
// @Router /courses/{course_id}/outcome-matrix/reload [post]
func (h *MatrixHandler) ReloadMatrix(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}

	view, err := h.matrixService.Reload(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExportMatrix downloads the live matrix as an xlsx sheet
// @Router /courses/{course_id}/outcome-matrix/export [get]
func (h *MatrixHandler) ExportMatrix(c *gin.Context) {
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}

	h.LogRequest(c, "Exporting outcome matrix", "course_id", courseID)

	data, err := h.importExportService.ExportMatrix(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("outcome-matrix-%s.xlsx", courseID), data)
}
