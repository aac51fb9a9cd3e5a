package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

type HandlerManager struct {
	answerKeyHandler *AnswerKeyHandler
	reviewHandler    *ReviewHandler
	matrixHandler    *MatrixHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		answerKeyHandler: NewAnswerKeyHandler(serviceManager.AnswerKey(), serviceManager.ImportExport(), logger),
		reviewHandler:    NewReviewHandler(serviceManager.Review(), logger),
		matrixHandler:    NewMatrixHandler(serviceManager.OutcomeMatrix(), serviceManager.ImportExport(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Answer key routes
		answerKeys := v1.Group("/answer-keys")
		{
			answerKeys.GET("/papers/:paper_id", hm.answerKeyHandler.GetPaper)
			answerKeys.GET("/papers/:paper_id/export", hm.answerKeyHandler.ExportPaper)
			answerKeys.POST("/papers/:paper_id/import", hm.answerKeyHandler.ImportPaper)
			answerKeys.GET("/students/:student_id/questions/:question_id", hm.answerKeyHandler.GetStudentView)
		}

		// Review session routes
		reviews := v1.Group("/reviews")
		{
			reviews.POST("", hm.reviewHandler.OpenSession)
			reviews.GET("/:session_id", hm.reviewHandler.GetSession)
			reviews.DELETE("/:session_id", hm.reviewHandler.CloseSession)

			// Per-question editing
			reviews.POST("/:session_id/questions/:question_id/edit", hm.reviewHandler.BeginEdit)
			reviews.PATCH("/:session_id/questions/:question_id/draft", hm.reviewHandler.UpdateDraft)
			reviews.PATCH("/:session_id/questions/:question_id/draft/:kind/:index", hm.reviewHandler.UpdateNested)
			reviews.DELETE("/:session_id/questions/:question_id/draft", hm.reviewHandler.CancelEdit)
			reviews.POST("/:session_id/questions/:question_id/save", hm.reviewHandler.SaveQuestion)
		}

		// CO/PO matrix routes
		courses := v1.Group("/courses")
		{
			courses.GET("/:course_id/outcome-matrix", hm.matrixHandler.GetMatrix)
			courses.PUT("/:course_id/outcome-matrix/cells", hm.matrixHandler.SetCell)
			courses.POST("/:course_id/outcome-matrix/reload", hm.matrixHandler.ReloadMatrix)
			courses.GET("/:course_id/outcome-matrix/export", hm.matrixHandler.ExportMatrix)
		}
	}
}

// HealthCheck reports that the process is serving requests
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "answer-key-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
