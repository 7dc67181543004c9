package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Kind      *models.AssessmentKind   `json:"kind"`
	Status    *models.AssessmentStatus `json:"status"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "title", "id"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	State     *models.SubmissionState `json:"state"`
	DateFrom  *time.Time              `json:"date_from"`
	DateTo    *time.Time              `json:"date_to"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
	SortBy    string                  `json:"sort_by"`
	SortOrder string                  `json:"sort_order"`
}

type RewardFilters struct {
	CategoryID *string `json:"category_id"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

// ===== CATALOG =====

type AssessmentRepository interface {
	// Create inserts the assessment together with its questions and options
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetCatalog returns the assessment with questions and options in display order
	GetCatalog(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	InvalidateCatalog(ctx context.Context, id uint)
}

// ===== SUBMISSIONS =====

type SubmissionRepository interface {
	// GetOrCreate inserts submission unless one exists for (user, assessment) and returns the stored row.
	// created is false when an existing row was returned.
	GetOrCreate(ctx context.Context, tx *gorm.DB, submission *models.Submission) (stored *models.Submission, created bool, err error)
	// CreateSubmitted inserts an already finalized submission. inserted is false on a (user, assessment) conflict.
	CreateSubmitted(ctx context.Context, tx *gorm.DB, submission *models.Submission) (inserted bool, err error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	// GetForUpdate reads the row with FOR UPDATE; tx must be a transaction
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (*models.Submission, error)
	// UpdatePosition moves an in progress submission; it returns ErrNotInProgress for submitted rows
	UpdatePosition(ctx context.Context, tx *gorm.DB, id uint, questionOrder int) error
	// MarkSubmitted performs the one way transition; transitioned is false when it was already submitted
	MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, lastQuestionOrder *int) (transitioned bool, err error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters SubmissionFilters) ([]*models.Submission, int64, error)
}

type AnswerRepository interface {
	// Upsert writes the answer keyed on (user, assessment, question)
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	GetByQuestion(ctx context.Context, tx *gorm.DB, userID string, assessmentID, questionID uint) (*models.Answer, error)
	ListByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) ([]*models.Answer, error)
}

// ===== REWARDS =====

type RewardRepository interface {
	// CreateIfAbsent inserts the reward; created is false when one already exists for (user, category, assessment)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, reward *models.RewardActivity) (created bool, err error)
	Exists(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (bool, error)
	Get(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (*models.RewardActivity, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters RewardFilters) ([]*models.RewardActivity, int64, error)
}

// ===== REPORTING =====

type ResultsRepository interface {
	// SubmissionSummaries joins submissions, answer counts and rewards of one assessment
	SubmissionSummaries(ctx context.Context, assessmentID uint, rewardCategoryID string, filters SubmissionFilters) ([]models.SubmissionSummary, int64, error)
}
