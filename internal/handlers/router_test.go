package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

const (
	memberToken = "user-1"
	adminToken  = "admin:admin-1"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *mockServiceManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}}
	}

	logger := testLogger()
	sm := newMockServiceManager()
	router := gin.New()
	m := metrics.New()
	SetupMiddleware(router, logger, cfg, m)

	auth := NewAuthMiddlewareWithParser(stubParser{}, missingUsers{}, logger)
	NewHandlerManager(sm, validator.New(), logger, auth, m).SetupRoutes(router)
	return router, sm
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/1/enter", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/questionnaires/1/enter", "bad", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuestionnaire_Enter(t *testing.T) {
	router, sm := setupRouter(t, nil)

	view := &services.NavigationView{AssessmentID: 7, SubmissionID: 11, Position: 2, Total: 5, State: models.SubmissionInProgress}
	sm.navigation.On("Enter", mock.Anything, "user-1", uint(7)).Return(view, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/enter", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got services.NavigationView
	decode(t, w, &got)
	assert.Equal(t, 2, got.Position)
	assert.Equal(t, uint(11), got.SubmissionID)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	sm.navigation.AssertExpectations(t)
}

func TestQuestionnaire_InvalidID(t *testing.T) {
	router, sm := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/abc/enter", memberToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	sm.navigation.AssertNotCalled(t, "Enter", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionnaire_NextPassesTypedAnswer(t *testing.T) {
	router, sm := setupRouter(t, nil)

	want := services.NavigationRequest{QuestionID: 3, Answer: models.RatingAnswer{Value: 2}}
	sm.navigation.On("Next", mock.Anything, "user-1", uint(7), want).
		Return(&services.NavigationView{Position: 1}, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/next", memberToken, gin.H{
		"question_id": 3,
		"answer":      gin.H{"type": "rating", "rating": 2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sm.navigation.AssertExpectations(t)
}

func TestQuestionnaire_NextWithoutAnswer(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.navigation.On("Next", mock.Anything, "user-1", uint(7), services.NavigationRequest{QuestionID: 3}).
		Return(&services.NavigationView{Position: 1, ReadOnly: true}, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/next", memberToken, gin.H{"question_id": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sm.navigation.AssertExpectations(t)
}

func TestQuestionnaire_NextRejectsMalformedAnswer(t *testing.T) {
	router, sm := setupRouter(t, nil)

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing answer type", body: gin.H{"question_id": 3, "answer": gin.H{"rating": 2}}},
		{name: "unknown type", body: gin.H{"question_id": 3, "answer": gin.H{"type": "essay"}}},
		{name: "rating without value", body: gin.H{"question_id": 3, "answer": gin.H{"type": "rating"}}},
		{name: "missing question", body: gin.H{"answer": gin.H{"type": "text", "text": "hi"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/next", memberToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	sm.navigation.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionnaire_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{name: "ahead of position", err: services.ErrPositionMismatch, status: http.StatusConflict},
		{name: "read only", err: services.ErrSubmissionReadOnly, status: http.StatusConflict},
		{name: "unknown question", err: services.ErrQuestionNotInAssessment, status: http.StatusBadRequest},
		{name: "wrong kind", err: services.ErrWrongAssessmentKind, status: http.StatusBadRequest},
		{name: "not published", err: services.ErrAssessmentNotPublished, status: http.StatusNotFound},
		{name: "invalid answer", err: services.ValidationErrors{{Field: "answer", Message: "out of range"}}, status: http.StatusBadRequest},
		{name: "missing assessment", err: &services.CatalogLoadError{AssessmentID: 7, Err: services.ErrAssessmentNotFound}, status: http.StatusNotFound},
		{name: "catalog unavailable", err: &services.CatalogLoadError{AssessmentID: 7, Err: errors.New("conn reset")}, status: http.StatusServiceUnavailable, retryable: true},
		{name: "save failed", err: &services.PersistenceError{Op: "save answer", Err: errors.New("timeout")}, status: http.StatusServiceUnavailable, retryable: true},
		{name: "finalize failed", err: &services.FinalizationError{SubmissionID: 1, Err: errors.New("timeout")}, status: http.StatusServiceUnavailable, retryable: true},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sm := setupRouter(t, nil)
			sm.navigation.On("Next", mock.Anything, "user-1", uint(7), mock.Anything).Return(nil, tt.err)

			w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/next", memberToken, gin.H{
				"question_id": 3,
				"answer":      gin.H{"type": "text", "text": "kindness"},
			})
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.retryable, resp.Retryable)
		})
	}
}

func TestQuestionnaire_BackWithoutAnswer(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.navigation.On("Back", mock.Anything, "user-1", uint(7), services.NavigationRequest{QuestionID: 4}).
		Return(&services.NavigationView{Position: 0, IsFirst: true}, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/back", memberToken, gin.H{"question_id": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sm.navigation.AssertExpectations(t)
}

func TestQuestionnaire_BackAtFirstQuestion(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.navigation.On("Back", mock.Anything, "user-1", uint(7), mock.Anything).Return(nil, services.ErrAtFirstQuestion)

	w := doJSON(router, http.MethodPost, "/api/v1/questionnaires/7/back", memberToken, gin.H{
		"question_id": 4,
		"answer":      gin.H{"type": "selected_option", "option_index": 1},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuestionnaire_SaveAndListAnswers(t *testing.T) {
	router, sm := setupRouter(t, nil)

	stored := &models.Answer{ID: 5, QuestionID: 9, Kind: models.AnswerText}
	sm.answer.On("Save", mock.Anything, "user-1", uint(7), uint(9), models.TextAnswer{Text: "grateful"}).Return(stored, nil)
	sm.answer.On("List", mock.Anything, "user-1", uint(7)).Return([]*models.Answer{stored}, nil)

	w := doJSON(router, http.MethodPut, "/api/v1/questionnaires/7/answers/9", memberToken, gin.H{
		"answer": gin.H{"type": "text", "text": "grateful"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/questionnaires/7/answers", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Answers []models.Answer `json:"answers"`
	}
	decode(t, w, &body)
	require.Len(t, body.Answers, 1)
	assert.Equal(t, uint(9), body.Answers[0].QuestionID)
}

func TestQuiz_Submit(t *testing.T) {
	router, sm := setupRouter(t, nil)

	result := &services.QuizResult{ScorePercent: 100, Correct: 2, Total: 2, Passed: true, RewardStatus: models.RewardIssued}
	sm.quiz.On("Submit", mock.Anything, "user-1", uint(3), map[uint]int{10: 1, 11: 0}).Return(result, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/quizzes/3/submit", memberToken, gin.H{
		"selections": []gin.H{
			{"question_id": 10, "option_index": 1},
			{"question_id": 11, "option_index": 0},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got services.QuizResult
	decode(t, w, &got)
	assert.Equal(t, 100, got.ScorePercent)
	assert.Equal(t, models.RewardIssued, got.RewardStatus)
}

func TestQuiz_SubmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "already completed", err: services.ErrQuizAlreadyCompleted, status: http.StatusConflict},
		{name: "window closed", err: services.ErrQuizWindowClosed, status: http.StatusForbidden},
		{name: "missing selection", err: services.ValidationErrors{{Field: "selections[10]", Message: "is required"}}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sm := setupRouter(t, nil)
			sm.quiz.On("Submit", mock.Anything, "user-1", uint(3), mock.Anything).Return(nil, tt.err)

			w := doJSON(router, http.MethodPost, "/api/v1/quizzes/3/submit", memberToken, gin.H{
				"selections": []gin.H{{"question_id": 10, "option_index": 1}},
			})
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestQuiz_SubmitRequiresSelections(t *testing.T) {
	router, sm := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/quizzes/3/submit", memberToken, gin.H{"selections": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	sm.quiz.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuiz_OpenAndResult(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.quiz.On("Open", mock.Anything, "user-1", uint(3)).Return(&services.QuizView{Open: true}, nil)
	sm.quiz.On("Result", mock.Anything, "user-1", uint(3)).Return(nil, services.ErrSubmissionNotFound)

	w := doJSON(router, http.MethodGet, "/api/v1/quizzes/3", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/quizzes/3/result", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_MembersOnlySeePublished(t *testing.T) {
	router, sm := setupRouter(t, nil)

	published := func(f repositories.AssessmentFilters) bool {
		return f.Status != nil && *f.Status == models.StatusPublished && f.Limit == 20
	}
	unfiltered := func(f repositories.AssessmentFilters) bool { return f.Status == nil }

	sm.catalog.On("List", mock.Anything, mock.MatchedBy(published)).Return([]*models.Assessment{{ID: 1}}, int64(1), nil).Once()
	sm.catalog.On("List", mock.Anything, mock.MatchedBy(unfiltered)).Return([]*models.Assessment{{ID: 1}, {ID: 2}}, int64(2), nil).Once()

	w := doJSON(router, http.MethodGet, "/api/v1/assessments", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)

	w = doJSON(router, http.MethodGet, "/api/v1/assessments", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.Total)

	w = doJSON(router, http.MethodGet, "/api/v1/assessments?kind=survey", memberToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sm.catalog.AssertExpectations(t)
}

func TestCatalog_HidesCorrectAnswers(t *testing.T) {
	router, sm := setupRouter(t, nil)

	correct := 1
	catalog := &services.Catalog{
		Assessment: &models.Assessment{ID: 3, Kind: models.KindQuiz, Status: models.StatusPublished},
		Questions:  []models.Question{{ID: 10, OrderIndex: 1, CorrectOptionIndex: &correct}},
	}
	sm.catalog.On("Load", mock.Anything, uint(3)).Return(catalog, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/assessments/3/catalog", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"correct_option_index":1`)
}

func TestCatalog_UnpublishedOnlyForAdmins(t *testing.T) {
	router, sm := setupRouter(t, nil)

	catalog := &services.Catalog{
		Assessment: &models.Assessment{ID: 5, Kind: models.KindQuestionnaire, Status: models.StatusDraft},
		Questions:  []models.Question{{ID: 11, OrderIndex: 1, Prompt: "Draft prompt"}},
	}
	sm.catalog.On("Load", mock.Anything, uint(5)).Return(catalog, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/assessments/5/catalog", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Draft prompt")

	w = doJSON(router, http.MethodGet, "/api/v1/assessments/5/catalog", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Draft prompt")
}

func TestMe_Rewards(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.reward.On("ListForUser", mock.Anything, "user-1", repositories.RewardFilters{Limit: 5, Offset: 0}).
		Return([]*models.RewardActivity{{ID: 1, Points: 25}}, int64(1), nil)

	w := doJSON(router, http.MethodGet, "/api/v1/me/rewards?limit=5", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sm.reward.AssertExpectations(t)
}

func TestMe_Submissions(t *testing.T) {
	router, sm := setupRouter(t, nil)

	submitted := models.SubmissionSubmitted
	sm.submission.On("ListByUser", mock.Anything, "user-1", repositories.SubmissionFilters{State: &submitted, Limit: 20}).
		Return([]*models.Submission{{ID: 4, State: submitted}}, int64(1), nil)

	w := doJSON(router, http.MethodGet, "/api/v1/me/submissions?state=submitted", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/me/submissions?state=done", memberToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	router, sm := setupRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/admin/assessments/3/submissions", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	sm.submission.AssertNotCalled(t, "Summaries", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmin_ExportResults(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.importExport.On("ExportResults", mock.Anything, uint(3), mock.Anything).Return(func(w io.Writer) error {
		_, err := w.Write([]byte("PK-workbook"))
		return err
	})
	sm.importExport.On("ExportResults", mock.Anything, uint(4), mock.Anything).
		Return(&services.CatalogLoadError{AssessmentID: 4, Err: services.ErrAssessmentNotFound})

	w := doJSON(router, http.MethodGet, "/api/v1/admin/assessments/3/results/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "assessment_3_results_")
	assert.Equal(t, "PK-workbook", w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/admin/assessments/4/results/export", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_ImportCatalog(t *testing.T) {
	router, sm := setupRouter(t, nil)

	sm.importExport.On("ImportCatalog", mock.Anything, mock.Anything, "admin-1").
		Return(&models.Assessment{ID: 9, Title: "Gratitude week"}, nil)

	upload := func(filename string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte("workbook"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := upload("catalog.xlsx")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = upload("catalog.csv")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	sm.importExport.AssertNumberOfCalls(t, "ImportCatalog", 1)
}

func TestHealth(t *testing.T) {
	router, sm := setupRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	sm.healthErr = errors.New("database unreachable")
	w = doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, sm := setupRouter(t, nil)
	sm.quiz.On("Open", mock.Anything, "user-1", uint(3)).Return(&services.QuizView{}, nil)

	doJSON(router, http.MethodGet, "/api/v1/quizzes/3", memberToken, nil)

	w := doJSON(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/quizzes/:id")
}
