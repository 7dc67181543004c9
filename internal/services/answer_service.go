package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

type answerService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	catalog   CatalogService
	validator *validator.BusinessValidator
}

func NewAnswerService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, catalog CatalogService, bv *validator.BusinessValidator) AnswerService {
	return &answerService{
		repo:      repo,
		db:        db,
		logger:    logger,
		catalog:   catalog,
		validator: bv,
	}
}

func (s *answerService) Save(ctx context.Context, userID string, assessmentID, questionID uint, value models.AnswerValue) (*models.Answer, error) {
	catalog, err := s.catalog.Load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if !catalog.Assessment.IsQuestionnaire() {
		return nil, ErrWrongAssessmentKind
	}
	if !catalog.Assessment.IsPublished() {
		return nil, ErrAssessmentNotPublished
	}

	question, err := s.checkAnswer(catalog, questionID, value)
	if err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByUserAndAssessment(ctx, s.db, userID, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return s.upsert(ctx, submission, question, value)
}

func (s *answerService) SaveForSubmission(ctx context.Context, catalog *Catalog, submission *models.Submission, questionID uint, value models.AnswerValue) (*models.Answer, error) {
	question, err := s.checkAnswer(catalog, questionID, value)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, submission, question, value)
}

func (s *answerService) List(ctx context.Context, userID string, assessmentID uint) ([]*models.Answer, error) {
	answers, err := s.repo.Answer().ListByUserAndAssessment(ctx, s.db, userID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// checkAnswer resolves the question and validates value; nothing is written on failure
func (s *answerService) checkAnswer(catalog *Catalog, questionID uint, value models.AnswerValue) (*models.Question, error) {
	question, ok := catalog.Question(questionID)
	if !ok {
		return nil, ErrQuestionNotInAssessment
	}
	if err := s.validator.ValidateAnswer(question, value); err != nil {
		return nil, err
	}
	return question, nil
}

// upsert writes the answer while holding the submission row, so it cannot interleave with finalization
func (s *answerService) upsert(ctx context.Context, submission *models.Submission, question *models.Question, value models.AnswerValue) (*models.Answer, error) {
	if submission.IsSubmitted() {
		return nil, ErrSubmissionReadOnly
	}

	answer := &models.Answer{
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		AssessmentID: submission.AssessmentID,
		QuestionID:   question.ID,
	}
	answer.SetValue(value)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		current, err := txRepo.Submission().GetForUpdate(ctx, nil, submission.ID)
		if err != nil {
			return err
		}
		if current.IsSubmitted() {
			return ErrSubmissionReadOnly
		}
		return txRepo.Answer().Upsert(ctx, nil, answer)
	})
	if err != nil {
		if errors.Is(err, ErrSubmissionReadOnly) {
			return nil, err
		}
		s.logger.Error("Failed to save answer",
			"submission_id", submission.ID,
			"question_id", question.ID,
			"error", err)
		return nil, &PersistenceError{Op: "save answer", Err: err}
	}

	return answer, nil
}
