package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type rewardService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	config    config.RewardConfig
	publisher events.EventPublisher
	metrics   *metrics.Metrics
}

func NewRewardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cfg config.RewardConfig, publisher events.EventPublisher, m *metrics.Metrics) RewardService {
	return &rewardService{
		repo:      repo,
		db:        db,
		logger:    logger,
		config:    cfg,
		publisher: publisher,
		metrics:   m,
	}
}

func (s *rewardService) Issue(ctx context.Context, req RewardRequest) (models.RewardStatus, error) {
	status, err := s.issue(ctx, req)
	s.metrics.ObserveReward(string(req.AssessmentKind), string(status))
	if err != nil {
		s.logger.Error("Reward issuance failed",
			"user_id", req.UserID,
			"assessment_id", req.AssessmentID,
			"submission_id", req.SubmissionID,
			"error", err)
		return models.RewardPending, &RewardIssuanceError{UserID: req.UserID, AssessmentID: req.AssessmentID, Err: err}
	}
	return status, nil
}

func (s *rewardService) issue(ctx context.Context, req RewardRequest) (models.RewardStatus, error) {
	// Older rows may only carry the assessment in their metadata
	exists, err := s.repo.Reward().Exists(ctx, s.db, req.UserID, s.config.CategoryID, req.AssessmentID)
	if err != nil {
		return models.RewardPending, err
	}
	if exists {
		return models.RewardAlreadyIssued, nil
	}

	metadata, err := models.RewardMetadata{
		AssessmentID:    req.AssessmentID,
		SubmissionID:    req.SubmissionID,
		AssessmentTitle: req.AssessmentTitle,
		ScorePercent:    req.ScorePercent,
	}.JSON()
	if err != nil {
		return models.RewardPending, fmt.Errorf("failed to encode reward metadata: %w", err)
	}

	reward := &models.RewardActivity{
		UserID:       req.UserID,
		CategoryID:   s.config.CategoryID,
		AssessmentID: req.AssessmentID,
		SubmissionID: req.SubmissionID,
		Points:       req.Points,
		Metadata:     metadata,
	}

	created, err := s.repo.Reward().CreateIfAbsent(ctx, s.db, reward)
	if err != nil {
		return models.RewardPending, err
	}
	if !created {
		return models.RewardAlreadyIssued, nil
	}

	s.logger.Info("Reward issued",
		"reward_id", reward.ID,
		"user_id", req.UserID,
		"assessment_id", req.AssessmentID,
		"points", req.Points)

	publishEvent(ctx, s.publisher, s.logger, events.RewardIssued, events.RewardIssuedData{
		RewardID:     reward.ID,
		UserID:       reward.UserID,
		CategoryID:   reward.CategoryID,
		AssessmentID: reward.AssessmentID,
		SubmissionID: reward.SubmissionID,
		Points:       reward.Points,
	})
	return models.RewardIssued, nil
}

func (s *rewardService) HasReward(ctx context.Context, userID string, assessmentID uint) (bool, error) {
	exists, err := s.repo.Reward().Exists(ctx, s.db, userID, s.config.CategoryID, assessmentID)
	if err != nil {
		return false, fmt.Errorf("failed to check reward: %w", err)
	}
	return exists, nil
}

func (s *rewardService) ListForUser(ctx context.Context, userID string, filters repositories.RewardFilters) ([]*models.RewardActivity, int64, error) {
	rewards, total, err := s.repo.Reward().ListByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, total, nil
}
