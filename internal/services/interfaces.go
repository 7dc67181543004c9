package services

import (
	"context"
	"io"
	"time"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type AssessmentImportRequest = validator.AssessmentImportRequest

// NavigationRequest names the question the client is on and the answer it shows
type NavigationRequest struct {
	QuestionID uint
	// Required for Next, optional for Back
	Answer models.AnswerValue
}

// NavigationView is what a participant sees after entering or moving
type NavigationView struct {
	AssessmentID uint                   `json:"assessment_id"`
	SubmissionID uint                   `json:"submission_id"`
	Title        string                 `json:"title"`
	State        models.SubmissionState `json:"state"`
	Position     int                    `json:"position"`
	Total        int                    `json:"total"`
	IsFirst      bool                   `json:"is_first"`
	IsLast       bool                   `json:"is_last"`
	ReadOnly     bool                   `json:"read_only"`
	Question     *models.Question       `json:"question"`
	Answer       *models.Answer         `json:"answer,omitempty"`
	Answers      []*models.Answer       `json:"answers"`
	Finalization *FinalizationOutcome   `json:"finalization,omitempty"`
}

// FinalizationOutcome reports the submitted transition and the reward attempt that followed
type FinalizationOutcome struct {
	SubmissionID     uint                `json:"submission_id"`
	SubmittedAt      time.Time           `json:"submitted_at"`
	AlreadySubmitted bool                `json:"already_submitted"`
	RewardStatus     models.RewardStatus `json:"reward_status"`
	// Soft failure, set together with RewardPending
	RewardError error `json:"-"`
}

type RewardRequest struct {
	UserID          string
	AssessmentID    uint
	SubmissionID    uint
	AssessmentTitle string
	AssessmentKind  models.AssessmentKind
	Points          int
	ScorePercent    *int
}

type QuizView struct {
	Catalog        *Catalog    `json:"catalog"`
	AvailableFrom  *time.Time  `json:"available_from,omitempty"`
	AvailableUntil *time.Time  `json:"available_until,omitempty"`
	Open           bool        `json:"open"`
	Locked         bool        `json:"locked"`
	Result         *QuizResult `json:"result,omitempty"`
}

type QuizResult struct {
	SubmissionID uint                `json:"submission_id"`
	AssessmentID uint                `json:"assessment_id"`
	ScorePercent int                 `json:"score_percent"`
	Correct      int                 `json:"correct"`
	Total        int                 `json:"total"`
	Passed       bool                `json:"passed"`
	PassingScore int                 `json:"passing_score"`
	SubmittedAt  time.Time           `json:"submitted_at"`
	RewardStatus models.RewardStatus `json:"reward_status"`
	RewardError  error               `json:"-"`
}

// ===== SERVICE INTERFACES =====

type CatalogService interface {
	// Load returns the assessment with questions in order; failures are *CatalogLoadError
	Load(ctx context.Context, assessmentID uint) (*Catalog, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error)
}

type SubmissionService interface {
	// GetOrCreate returns the single submission of (user, assessment), creating it in progress when absent
	GetOrCreate(ctx context.Context, userID string, assessmentID uint, firstQuestionOrder *int) (*models.Submission, error)
	Get(ctx context.Context, userID string, assessmentID uint) (*models.Submission, error)
	ListByUser(ctx context.Context, userID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
	Summaries(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]models.SubmissionSummary, int64, error)
}

type AnswerService interface {
	Save(ctx context.Context, userID string, assessmentID, questionID uint, value models.AnswerValue) (*models.Answer, error)
	// SaveForSubmission is Save with the catalog and submission already loaded
	SaveForSubmission(ctx context.Context, catalog *Catalog, submission *models.Submission, questionID uint, value models.AnswerValue) (*models.Answer, error)
	List(ctx context.Context, userID string, assessmentID uint) ([]*models.Answer, error)
}

type NavigationService interface {
	Enter(ctx context.Context, userID string, assessmentID uint) (*NavigationView, error)
	Next(ctx context.Context, userID string, assessmentID uint, req NavigationRequest) (*NavigationView, error)
	Back(ctx context.Context, userID string, assessmentID uint, req NavigationRequest) (*NavigationView, error)
}

type FinalizationService interface {
	// Finalize marks the submission submitted and issues the reward. A reward failure is carried in the outcome.
	Finalize(ctx context.Context, catalog *Catalog, submission *models.Submission) (*FinalizationOutcome, error)
}

type RewardService interface {
	// Issue grants the reward once per (user, category, assessment). Errors are *RewardIssuanceError with RewardPending.
	Issue(ctx context.Context, req RewardRequest) (models.RewardStatus, error)
	HasReward(ctx context.Context, userID string, assessmentID uint) (bool, error)
	ListForUser(ctx context.Context, userID string, filters repositories.RewardFilters) ([]*models.RewardActivity, int64, error)
}

type QuizService interface {
	Open(ctx context.Context, userID string, quizID uint) (*QuizView, error)
	Submit(ctx context.Context, userID string, quizID uint, selections map[uint]int) (*QuizResult, error)
	Result(ctx context.Context, userID string, quizID uint) (*QuizResult, error)
}

type ImportExportService interface {
	// ImportCatalog reads an xlsx workbook and creates the assessment it describes
	ImportCatalog(ctx context.Context, r io.Reader, userID string) (*models.Assessment, error)
	// ExportResults writes one row per submission of the assessment as xlsx
	ExportResults(ctx context.Context, assessmentID uint, w io.Writer) error
}

// ServiceManager interface for managing all services
type ServiceManager interface {
	Catalog() CatalogService
	Submission() SubmissionService
	Answer() AnswerService
	Navigation() NavigationService
	Finalization() FinalizationService
	Reward() RewardService
	Quiz() QuizService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
