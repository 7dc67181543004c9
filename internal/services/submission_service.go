package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type submissionService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	reward config.RewardConfig
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, reward config.RewardConfig) SubmissionService {
	return &submissionService{
		repo:   repo,
		db:     db,
		logger: logger,
		reward: reward,
	}
}

func (s *submissionService) GetOrCreate(ctx context.Context, userID string, assessmentID uint, firstQuestionOrder *int) (*models.Submission, error) {
	candidate := &models.Submission{
		AssessmentID:         assessmentID,
		UserID:               userID,
		State:                models.SubmissionInProgress,
		StartedAt:            time.Now(),
		CurrentQuestionOrder: firstQuestionOrder,
	}

	submission, created, err := s.repo.Submission().GetOrCreate(ctx, s.db, candidate)
	if err != nil {
		return nil, &PersistenceError{Op: "create submission", Err: err}
	}

	if created {
		s.logger.Info("Submission started",
			"submission_id", submission.ID,
			"assessment_id", assessmentID,
			"user_id", userID)
	}
	return submission, nil
}

func (s *submissionService) Get(ctx context.Context, userID string, assessmentID uint) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByUserAndAssessment(ctx, s.db, userID, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) ListByUser(ctx context.Context, userID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	submissions, total, err := s.repo.Submission().ListByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// Summaries lists the submissions of one assessment with their reward status
func (s *submissionService) Summaries(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]models.SubmissionSummary, int64, error) {
	rows, total, err := s.repo.Results().SubmissionSummaries(ctx, assessmentID, s.reward.CategoryID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get submission summaries: %w", err)
	}
	return rows, total, nil
}
