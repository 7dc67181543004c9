package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/mock"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
)

// stubParser accepts "<user>" or "admin:<user>" as a token
type stubParser struct{}

func (stubParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if token == "" || token == "bad" {
		return nil, errors.New("invalid token")
	}
	claims := &casdoorsdk.Claims{}
	if len(token) > 6 && token[:6] == "admin:" {
		claims.User = casdoorsdk.User{Id: token[6:], IsAdmin: true}
	} else {
		claims.User = casdoorsdk.User{Id: token}
	}
	return claims, nil
}

// missingUsers always misses so the claims are used
type missingUsers struct{}

func (missingUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

func (missingUsers) ExistsByID(ctx context.Context, id string) (bool, error) { return false, nil }

func (missingUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	return false, nil
}

type MockCatalogService struct{ mock.Mock }

func (m *MockCatalogService) Load(ctx context.Context, assessmentID uint) (*services.Catalog, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Catalog), args.Error(1)
}

func (m *MockCatalogService) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Assessment), args.Get(1).(int64), args.Error(2)
}

type MockSubmissionService struct{ mock.Mock }

func (m *MockSubmissionService) GetOrCreate(ctx context.Context, userID string, assessmentID uint, firstQuestionOrder *int) (*models.Submission, error) {
	args := m.Called(ctx, userID, assessmentID, firstQuestionOrder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) Get(ctx context.Context, userID string, assessmentID uint) (*models.Submission, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) ListByUser(ctx context.Context, userID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionService) Summaries(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]models.SubmissionSummary, int64, error) {
	args := m.Called(ctx, assessmentID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.SubmissionSummary), args.Get(1).(int64), args.Error(2)
}

type MockAnswerService struct{ mock.Mock }

func (m *MockAnswerService) Save(ctx context.Context, userID string, assessmentID, questionID uint, value models.AnswerValue) (*models.Answer, error) {
	args := m.Called(ctx, userID, assessmentID, questionID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAnswerService) SaveForSubmission(ctx context.Context, catalog *services.Catalog, submission *models.Submission, questionID uint, value models.AnswerValue) (*models.Answer, error) {
	args := m.Called(ctx, catalog, submission, questionID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAnswerService) List(ctx context.Context, userID string, assessmentID uint) ([]*models.Answer, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Answer), args.Error(1)
}

type MockNavigationService struct{ mock.Mock }

func (m *MockNavigationService) Enter(ctx context.Context, userID string, assessmentID uint) (*services.NavigationView, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NavigationView), args.Error(1)
}

func (m *MockNavigationService) Next(ctx context.Context, userID string, assessmentID uint, req services.NavigationRequest) (*services.NavigationView, error) {
	args := m.Called(ctx, userID, assessmentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NavigationView), args.Error(1)
}

func (m *MockNavigationService) Back(ctx context.Context, userID string, assessmentID uint, req services.NavigationRequest) (*services.NavigationView, error) {
	args := m.Called(ctx, userID, assessmentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NavigationView), args.Error(1)
}

type MockRewardService struct{ mock.Mock }

func (m *MockRewardService) Issue(ctx context.Context, req services.RewardRequest) (models.RewardStatus, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.RewardStatus), args.Error(1)
}

func (m *MockRewardService) HasReward(ctx context.Context, userID string, assessmentID uint) (bool, error) {
	args := m.Called(ctx, userID, assessmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRewardService) ListForUser(ctx context.Context, userID string, filters repositories.RewardFilters) ([]*models.RewardActivity, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.RewardActivity), args.Get(1).(int64), args.Error(2)
}

type MockQuizService struct{ mock.Mock }

func (m *MockQuizService) Open(ctx context.Context, userID string, quizID uint) (*services.QuizView, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuizView), args.Error(1)
}

func (m *MockQuizService) Submit(ctx context.Context, userID string, quizID uint, selections map[uint]int) (*services.QuizResult, error) {
	args := m.Called(ctx, userID, quizID, selections)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuizResult), args.Error(1)
}

func (m *MockQuizService) Result(ctx context.Context, userID string, quizID uint) (*services.QuizResult, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuizResult), args.Error(1)
}

type MockImportExportService struct{ mock.Mock }

func (m *MockImportExportService) ImportCatalog(ctx context.Context, r io.Reader, userID string) (*models.Assessment, error) {
	args := m.Called(ctx, r, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockImportExportService) ExportResults(ctx context.Context, assessmentID uint, w io.Writer) error {
	args := m.Called(ctx, assessmentID, w)
	if fn, ok := args.Get(0).(func(io.Writer) error); ok {
		return fn(w)
	}
	return args.Error(0)
}

// mockServiceManager exposes the mocks through services.ServiceManager
type mockServiceManager struct {
	catalog      *MockCatalogService
	submission   *MockSubmissionService
	answer       *MockAnswerService
	navigation   *MockNavigationService
	reward       *MockRewardService
	quiz         *MockQuizService
	importExport *MockImportExportService
	healthErr    error
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		catalog:      &MockCatalogService{},
		submission:   &MockSubmissionService{},
		answer:       &MockAnswerService{},
		navigation:   &MockNavigationService{},
		reward:       &MockRewardService{},
		quiz:         &MockQuizService{},
		importExport: &MockImportExportService{},
	}
}

func (sm *mockServiceManager) Catalog() services.CatalogService           { return sm.catalog }
func (sm *mockServiceManager) Submission() services.SubmissionService     { return sm.submission }
func (sm *mockServiceManager) Answer() services.AnswerService             { return sm.answer }
func (sm *mockServiceManager) Navigation() services.NavigationService     { return sm.navigation }
func (sm *mockServiceManager) Finalization() services.FinalizationService { return nil }
func (sm *mockServiceManager) Reward() services.RewardService             { return sm.reward }
func (sm *mockServiceManager) Quiz() services.QuizService                 { return sm.quiz }
func (sm *mockServiceManager) ImportExport() services.ImportExportService { return sm.importExport }

func (sm *mockServiceManager) Initialize(ctx context.Context) error  { return nil }
func (sm *mockServiceManager) HealthCheck(ctx context.Context) error { return sm.healthErr }
func (sm *mockServiceManager) Shutdown(ctx context.Context) error    { return nil }
