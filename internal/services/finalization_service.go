package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type finalizationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	rewards   RewardService
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewFinalizationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, rewards RewardService, publisher events.EventPublisher, m *metrics.Metrics) FinalizationService {
	return &finalizationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		rewards:   rewards,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// Finalize runs once per submission. A submission that is already submitted is left alone and the
// reward is not attempted again, so a reward that failed earlier stays pending.
func (s *finalizationService) Finalize(ctx context.Context, catalog *Catalog, submission *models.Submission) (*FinalizationOutcome, error) {
	if submission.IsSubmitted() {
		return s.alreadySubmitted(ctx, submission), nil
	}

	submittedAt := s.now()
	var lastOrder *int
	if catalog.Len() > 0 {
		order := catalog.Questions[catalog.Last()].OrderIndex
		lastOrder = &order
	}

	transitioned, err := s.repo.Submission().MarkSubmitted(ctx, s.db, submission.ID, submittedAt, lastOrder)
	if err != nil {
		s.logger.Error("Failed to finalize submission", "submission_id", submission.ID, "error", err)
		return nil, &FinalizationError{SubmissionID: submission.ID, Err: err}
	}

	if !transitioned {
		// Lost a race with a concurrent finalize
		current, err := s.repo.Submission().GetByID(ctx, s.db, submission.ID)
		if err != nil {
			return nil, &FinalizationError{SubmissionID: submission.ID, Err: err}
		}
		*submission = *current
		return s.alreadySubmitted(ctx, submission), nil
	}

	submission.State = models.SubmissionSubmitted
	submission.SubmittedAt = &submittedAt
	submission.CurrentQuestionOrder = lastOrder

	kind := catalog.Assessment.Kind
	s.metrics.ObserveFinalized(string(kind))
	s.logger.Info("Submission finalized",
		"submission_id", submission.ID,
		"assessment_id", submission.AssessmentID,
		"user_id", submission.UserID)

	publishEvent(ctx, s.publisher, s.logger, events.SubmissionFinalized, events.SubmissionFinalizedData{
		SubmissionID: submission.ID,
		AssessmentID: submission.AssessmentID,
		UserID:       submission.UserID,
		Kind:         string(kind),
		SubmittedAt:  submittedAt,
	})

	outcome := &FinalizationOutcome{
		SubmissionID: submission.ID,
		SubmittedAt:  submittedAt,
	}

	status, err := s.rewards.Issue(ctx, RewardRequest{
		UserID:          submission.UserID,
		AssessmentID:    submission.AssessmentID,
		SubmissionID:    submission.ID,
		AssessmentTitle: catalog.Assessment.Title,
		AssessmentKind:  kind,
		Points:          catalog.Assessment.PointValue,
	})
	outcome.RewardStatus = status
	if err != nil {
		outcome.RewardStatus = models.RewardPending
		outcome.RewardError = err
	}

	return outcome, nil
}

func (s *finalizationService) alreadySubmitted(ctx context.Context, submission *models.Submission) *FinalizationOutcome {
	outcome := &FinalizationOutcome{
		SubmissionID:     submission.ID,
		AlreadySubmitted: true,
		RewardStatus:     models.RewardPending,
	}
	if p, ok := submission.Progress().(models.Submitted); ok {
		outcome.SubmittedAt = p.At
	}

	// Read only; a missing reward is reported, never retried here
	has, err := s.rewards.HasReward(ctx, submission.UserID, submission.AssessmentID)
	if err != nil {
		s.logger.Warn("Failed to check reward of submitted submission", "submission_id", submission.ID, "error", err)
	} else if has {
		outcome.RewardStatus = models.RewardAlreadyIssued
	}
	return outcome
}
