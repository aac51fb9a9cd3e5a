package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
	"github.com/SAP-F-2025/answer-key-service/internal/services"
	"github.com/SAP-F-2025/answer-key-service/internal/utils"
)

type mockAnswerKeyService struct{ mock.Mock }

func (m *mockAnswerKeyService) GetPaper(ctx context.Context, paperID string, fallback bool) (*services.PaperView, error) {
	args := m.Called(ctx, paperID, fallback)
	view, _ := args.Get(0).(*services.PaperView)
	return view, args.Error(1)
}

func (m *mockAnswerKeyService) GetStudentView(ctx context.Context, studentID, questionID string) (*services.PaperView, error) {
	args := m.Called(ctx, studentID, questionID)
	view, _ := args.Get(0).(*services.PaperView)
	return view, args.Error(1)
}

func (m *mockAnswerKeyService) ImportPaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) (*services.PaperView, error) {
	args := m.Called(ctx, paperID, nodes)
	view, _ := args.Get(0).(*services.PaperView)
	return view, args.Error(1)
}

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) Open(ctx context.Context, req *services.OpenReviewRequest) (*services.ReviewView, error) {
	args := m.Called(ctx, req)
	view, _ := args.Get(0).(*services.ReviewView)
	return view, args.Error(1)
}

func (m *mockReviewService) Get(ctx context.Context, sessionID string) (*services.ReviewView, error) {
	args := m.Called(ctx, sessionID)
	view, _ := args.Get(0).(*services.ReviewView)
	return view, args.Error(1)
}

func (m *mockReviewService) Close(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockReviewService) nodeResult(args mock.Arguments) (*review.NodeView, error) {
	view, _ := args.Get(0).(*review.NodeView)
	return view, args.Error(1)
}

func (m *mockReviewService) BeginEdit(ctx context.Context, sessionID string, id models.NodeID) (*review.NodeView, error) {
	return m.nodeResult(m.Called(ctx, sessionID, id))
}

func (m *mockReviewService) UpdateDraft(ctx context.Context, sessionID string, id models.NodeID, patch models.QuestionPatch) (*review.NodeView, error) {
	return m.nodeResult(m.Called(ctx, sessionID, id, patch))
}

func (m *mockReviewService) UpdateNested(ctx context.Context, sessionID string, id models.NodeID, kind models.ChildKind, index int, patch models.QuestionPatch) (*review.NodeView, error) {
	return m.nodeResult(m.Called(ctx, sessionID, id, kind, index, patch))
}

func (m *mockReviewService) CancelEdit(ctx context.Context, sessionID string, id models.NodeID) (*review.NodeView, error) {
	return m.nodeResult(m.Called(ctx, sessionID, id))
}

func (m *mockReviewService) Save(ctx context.Context, sessionID string, id models.NodeID) (*services.SaveResult, error) {
	args := m.Called(ctx, sessionID, id)
	result, _ := args.Get(0).(*services.SaveResult)
	return result, args.Error(1)
}

type mockMatrixService struct{ mock.Mock }

func (m *mockMatrixService) GetMatrix(ctx context.Context, courseID string) (*services.MatrixView, error) {
	args := m.Called(ctx, courseID)
	view, _ := args.Get(0).(*services.MatrixView)
	return view, args.Error(1)
}

func (m *mockMatrixService) SetCell(ctx context.Context, courseID string, req *services.SetCellRequest) (*services.MatrixView, error) {
	args := m.Called(ctx, courseID, req)
	view, _ := args.Get(0).(*services.MatrixView)
	return view, args.Error(1)
}

func (m *mockMatrixService) Reload(ctx context.Context, courseID string) (*services.MatrixView, error) {
	args := m.Called(ctx, courseID)
	view, _ := args.Get(0).(*services.MatrixView)
	return view, args.Error(1)
}

type mockImportExportService struct{ mock.Mock }

func (m *mockImportExportService) ExportAnswerKey(ctx context.Context, paperID string) ([]byte, error) {
	args := m.Called(ctx, paperID)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockImportExportService) ExportMatrix(ctx context.Context, courseID string) ([]byte, error) {
	args := m.Called(ctx, courseID)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockImportExportService) ImportAnswerKey(ctx context.Context, paperID string, r io.Reader, filename string) (*services.ImportResult, error) {
	args := m.Called(ctx, paperID, r, filename)
	result, _ := args.Get(0).(*services.ImportResult)
	return result, args.Error(1)
}

type mockServiceManager struct {
	answerKeys   *mockAnswerKeyService
	reviews      *mockReviewService
	matrices     *mockMatrixService
	importExport *mockImportExportService
}

func (m *mockServiceManager) AnswerKey() services.AnswerKeyService         { return m.answerKeys }
func (m *mockServiceManager) Review() services.ReviewService               { return m.reviews }
func (m *mockServiceManager) OutcomeMatrix() services.OutcomeMatrixService { return m.matrices }
func (m *mockServiceManager) ImportExport() services.ImportExportService   { return m.importExport }

func setupRouter(t *testing.T) (*gin.Engine, *mockServiceManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.RegisterGinValidators()

	sm := &mockServiceManager{
		answerKeys:   &mockAnswerKeyService{},
		reviews:      &mockReviewService{},
		matrices:     &mockMatrixService{},
		importExport: &mockImportExportService{},
	}
	t.Cleanup(func() {
		sm.answerKeys.AssertExpectations(t)
		sm.reviews.AssertExpectations(t)
		sm.matrices.AssertExpectations(t)
		sm.importExport.AssertExpectations(t)
	})

	logger := utils.NewLogger("test", "error")
	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	NewHandlerManager(sm, logger).SetupRoutes(router)
	return router, sm
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(utils.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(utils.RequestIDHeader))
}

func TestGetPaper(t *testing.T) {
	router, sm := setupRouter(t)
	view := &services.PaperView{PaperID: "p1", Empty: true}
	sm.answerKeys.On("GetPaper", mock.Anything, "p1", true).Return(view, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/answer-keys/papers/p1?fallback=true", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got services.PaperView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "p1", got.PaperID)
	assert.True(t, got.Empty)
}

func TestGetPaper_FetchFailureIsRetryable(t *testing.T) {
	router, sm := setupRouter(t)
	err := fmt.Errorf("%w: answer key: connection refused", services.ErrFetchFailed)
	sm.answerKeys.On("GetPaper", mock.Anything, "p1", false).Return(nil, err)

	w := doJSON(t, router, http.MethodGet, "/api/v1/answer-keys/papers/p1", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "fetch_failed", resp.Code)
	assert.True(t, resp.Retryable)
}

func TestGetStudentView(t *testing.T) {
	router, sm := setupRouter(t)
	sm.answerKeys.On("GetStudentView", mock.Anything, "s1", "q1").Return(&services.PaperView{}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/answer-keys/students/s1/questions/q1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportPaper(t *testing.T) {
	router, sm := setupRouter(t)
	sm.importExport.On("ExportAnswerKey", mock.Anything, "p1").Return([]byte("xlsx-bytes"), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/answer-keys/papers/p1/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "answer-key-p1.xlsx")
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
}

func multipartUpload(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportPaper(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, sm := setupRouter(t)
		result := &services.ImportResult{PaperID: "p1", TotalRows: 2, ImportedCount: 2}
		sm.importExport.On("ImportAnswerKey", mock.Anything, "p1", mock.Anything, "key.csv").Return(result, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "/api/v1/answer-keys/papers/p1/import", "key.csv", "max_marks\n5\n"))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("row errors", func(t *testing.T) {
		router, sm := setupRouter(t)
		result := &services.ImportResult{
			PaperID:    "p1",
			TotalRows:  1,
			ErrorCount: 1,
			Errors:     []services.ImportRowError{{Row: 2, Field: "max_marks", Message: "must be a number"}},
		}
		sm.importExport.On("ImportAnswerKey", mock.Anything, "p1", mock.Anything, "key.csv").Return(result, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "/api/v1/answer-keys/papers/p1/import", "key.csv", "max_marks\nx\n"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "must be a number")
	})

	t.Run("missing file", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doJSON(t, router, http.MethodPost, "/api/v1/answer-keys/papers/p1/import", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		router, sm := setupRouter(t)
		sm.importExport.On("ImportAnswerKey", mock.Anything, "p1", mock.Anything, "key.csv").
			Return(nil, services.ErrImportNotSupported)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "/api/v1/answer-keys/papers/p1/import", "key.csv", "max_marks\n5\n"))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "import_not_supported", decodeError(t, w).Code)
	})
}

func TestOpenSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, sm := setupRouter(t)
		view := &services.ReviewView{SessionID: "s1", PaperID: "p1"}
		sm.reviews.On("Open", mock.Anything, &services.OpenReviewRequest{PaperID: "p1"}).Return(view, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/reviews", map[string]interface{}{"paper_id": "p1"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"session_id":"s1"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		router, sm := setupRouter(t)
		verr := services.ValidationErrors{{Field: "paper_id", Message: "is required"}}
		sm.reviews.On("Open", mock.Anything, mock.Anything).Return(nil, verr)

		w := doJSON(t, router, http.MethodPost, "/api/v1/reviews", map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_failed", decodeError(t, w).Code)
	})
}

func TestGetAndCloseSession(t *testing.T) {
	router, sm := setupRouter(t)
	sm.reviews.On("Get", mock.Anything, "s1").Return(&services.ReviewView{SessionID: "s1"}, nil)
	sm.reviews.On("Close", mock.Anything, "s1").Return(nil)
	sm.reviews.On("Get", mock.Anything, "gone").Return(nil, review.ErrSessionNotFound)

	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/api/v1/reviews/s1", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, "/api/v1/reviews/s1", nil).Code)

	w := doJSON(t, router, http.MethodGet, "/api/v1/reviews/gone", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session_not_found", decodeError(t, w).Code)
}

func TestEditLifecycleRoutes(t *testing.T) {
	router, sm := setupRouter(t)
	view := &review.NodeView{ID: "q1", Mode: review.ModeEditing, CanSave: true}
	marks := 8.0
	patch := models.QuestionPatch{MaxMarks: &marks}

	sm.reviews.On("BeginEdit", mock.Anything, "s1", models.NodeID("q1")).Return(view, nil)
	sm.reviews.On("UpdateDraft", mock.Anything, "s1", models.NodeID("q1"), patch).Return(view, nil)
	sm.reviews.On("UpdateNested", mock.Anything, "s1", models.NodeID("q1"), models.KindPart, 1, patch).Return(view, nil)
	sm.reviews.On("CancelEdit", mock.Anything, "s1", models.NodeID("q1")).Return(&review.NodeView{ID: "q1", Mode: review.ModeReadOnly}, nil)

	base := "/api/v1/reviews/s1/questions/q1"
	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, base+"/edit", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, base+"/draft", map[string]interface{}{"max_marks": 8}).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, base+"/draft/part/1", map[string]interface{}{"max_marks": 8}).Code)

	w := doJSON(t, router, http.MethodDelete, base+"/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"read_only"`)
}

func TestUpdateNested_BadIndex(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPatch, "/api/v1/reviews/s1/questions/q1/draft/part/-1", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveQuestion(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, sm := setupRouter(t)
		result := &services.SaveResult{
			View:     review.NodeView{ID: "q1", Mode: review.ModeReadOnly},
			Warnings: []string{"parts add up to 7"},
		}
		sm.reviews.On("Save", mock.Anything, "s1", models.NodeID("q1")).Return(result, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/reviews/s1/questions/q1/save", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "parts add up to 7")
	})

	t.Run("backend failure keeps draft", func(t *testing.T) {
		router, sm := setupRouter(t)
		saveErr := &review.SaveError{ID: "q1", Message: "Failed to save question", Err: errors.New("timeout")}
		sm.reviews.On("Save", mock.Anything, "s1", models.NodeID("q1")).Return(nil, saveErr)

		w := doJSON(t, router, http.MethodPost, "/api/v1/reviews/s1/questions/q1/save", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "save_failed", resp.Code)
		assert.Equal(t, "Failed to save question", resp.Message)
		assert.True(t, resp.Retryable)
	})

	t.Run("state conflicts", func(t *testing.T) {
		cases := map[error]string{
			review.ErrNotEditing:       "not_editing",
			review.ErrSaveInFlight:     "save_in_flight",
			review.ErrFallbackReadOnly: "sample_read_only",
		}
		for err, code := range cases {
			router, sm := setupRouter(t)
			sm.reviews.On("Save", mock.Anything, "s1", models.NodeID("q1")).Return(nil, err)

			w := doJSON(t, router, http.MethodPost, "/api/v1/reviews/s1/questions/q1/save", nil)

			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Equal(t, code, decodeError(t, w).Code)
		}
	})
}

func TestMatrixRoutes(t *testing.T) {
	router, sm := setupRouter(t)
	view := &services.MatrixView{
		CourseID: "c1",
		View: matrix.View{
			Columns: []matrix.Header{{Label: "PO1"}},
			Rows: []matrix.ViewRow{
				{Header: matrix.Header{Label: "CO1"}, Editable: true, Values: []float64{3}},
			},
		},
	}
	req := &services.SetCellRequest{Row: "CO1", Column: "PO1", Value: 3}

	sm.matrices.On("GetMatrix", mock.Anything, "c1").Return(view, nil)
	sm.matrices.On("SetCell", mock.Anything, "c1", req).Return(view, nil)
	sm.matrices.On("Reload", mock.Anything, "c1").Return(view, nil)
	sm.importExport.On("ExportMatrix", mock.Anything, "c1").Return([]byte("matrix"), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/courses/c1/outcome-matrix", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"course_id":"c1"`)

	w = doJSON(t, router, http.MethodPut, "/api/v1/courses/c1/outcome-matrix/cells",
		map[string]interface{}{"row": "CO1", "column": "PO1", "value": 3})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/v1/courses/c1/outcome-matrix/reload", nil).Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/courses/c1/outcome-matrix/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "outcome-matrix-c1.xlsx")
}

func TestSetCell_Errors(t *testing.T) {
	t.Run("persist failure", func(t *testing.T) {
		router, sm := setupRouter(t)
		sm.matrices.On("SetCell", mock.Anything, "c1", mock.Anything).
			Return(nil, fmt.Errorf("%w: outcome mapping", services.ErrPersistFailed))

		w := doJSON(t, router, http.MethodPut, "/api/v1/courses/c1/outcome-matrix/cells",
			map[string]interface{}{"row": "CO1", "column": "PO1", "value": 2})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "persist_failed", decodeError(t, w).Code)
	})

	t.Run("unknown row", func(t *testing.T) {
		router, sm := setupRouter(t)
		sm.matrices.On("SetCell", mock.Anything, "c1", mock.Anything).Return(nil, matrix.ErrUnknownRow)

		w := doJSON(t, router, http.MethodPut, "/api/v1/courses/c1/outcome-matrix/cells",
			map[string]interface{}{"row": "CO9", "column": "PO1", "value": 2})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("strength out of range", func(t *testing.T) {
		router, sm := setupRouter(t)
		sm.matrices.On("SetCell", mock.Anything, "c1", mock.Anything).Return(nil, matrix.ErrStrengthOutOfRange)

		w := doJSON(t, router, http.MethodPut, "/api/v1/courses/c1/outcome-matrix/cells",
			map[string]interface{}{"row": "CO1", "column": "PO1", "value": 7})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type mockQuestionSaver struct{ mock.Mock }

func (m *mockQuestionSaver) SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error {
	return m.Called(ctx, req).Error(0)
}

// liveReviewManager serves review routes from a real review service so the
// request runs through validation and the session state machine.
type liveReviewManager struct {
	*mockServiceManager
	review services.ReviewService
}

func (m *liveReviewManager) Review() services.ReviewService { return m.review }

func TestDraftWithNullChildIsRejectedAndSaveStillWorks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := utils.NewLogger("test", "error")

	keys := &mockAnswerKeyService{}
	keys.On("GetPaper", mock.Anything, "p1", false).Return(&services.PaperView{
		PaperID: "p1",
		Questions: []*models.QuestionNode{{
			ID:       "1",
			MaxMarks: 4,
			SubQuestions: []*models.QuestionNode{
				{ID: "1a", MaxMarks: 4},
			},
		}},
	}, nil)
	saver := &mockQuestionSaver{}
	saver.On("SaveQuestion", mock.Anything, mock.MatchedBy(func(req *models.SaveQuestionRequest) bool {
		return req.QuestionID == "1" && len(req.SubQuestions) == 1 && req.SubQuestions[0] != nil
	})).Return(nil).Once()

	sm := &liveReviewManager{
		mockServiceManager: &mockServiceManager{
			answerKeys:   keys,
			reviews:      &mockReviewService{},
			matrices:     &mockMatrixService{},
			importExport: &mockImportExportService{},
		},
		review: services.NewReviewService(keys, review.NewRegistry(saver), nil, utils.ToSlogLogger(logger), nil),
	}
	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	NewHandlerManager(sm, logger).SetupRoutes(router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/reviews", map[string]interface{}{"paper_id": "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var opened services.ReviewView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	base := "/api/v1/reviews/" + opened.SessionID + "/questions/1"

	w = doJSON(t, router, http.MethodPost, base+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPatch, base+"/draft", bytes.NewBufferString(`{"sub_questions":[null]}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decodeError(t, w).Code)

	w = doJSON(t, router, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, base+"/edit", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	keys.AssertExpectations(t)
	saver.AssertExpectations(t)
}
