package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	config    config.RewardConfig
	catalog   CatalogService
	rewards   RewardService
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	clock     func() time.Time
}

func NewQuizService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	cfg config.RewardConfig,
	catalog CatalogService,
	rewards RewardService,
	bv *validator.BusinessValidator,
	publisher events.EventPublisher,
	m *metrics.Metrics,
) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		config:    cfg,
		catalog:   catalog,
		rewards:   rewards,
		validator: bv,
		publisher: publisher,
		metrics:   m,
		clock:     time.Now,
	}
}

// Open shows the quiz without correct answers. It never creates a submission.
func (s *quizService) Open(ctx context.Context, userID string, quizID uint) (*QuizView, error) {
	catalog, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	view := &QuizView{
		Catalog:        catalog.PublicView(),
		AvailableFrom:  catalog.Assessment.AvailableFrom,
		AvailableUntil: catalog.Assessment.AvailableUntil,
		Open:           catalog.Assessment.IsAvailableAt(s.clock()),
	}

	submission, err := s.repo.Submission().GetByUserAndAssessment(ctx, s.db, userID, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return view, nil
		}
		return nil, &PersistenceError{Op: "get quiz submission", Err: err}
	}

	result, err := s.result(ctx, catalog, submission)
	if err != nil {
		return nil, err
	}
	view.Locked = true
	view.Result = result
	return view, nil
}

func (s *quizService) Submit(ctx context.Context, userID string, quizID uint, selections map[uint]int) (*QuizResult, error) {
	catalog, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if !catalog.Assessment.IsAvailableAt(now) {
		return nil, ErrQuizWindowClosed
	}

	_, err = s.repo.Submission().GetByUserAndAssessment(ctx, s.db, userID, quizID)
	if err == nil {
		return nil, ErrQuizAlreadyCompleted
	}
	if !repositories.IsNotFoundError(err) {
		return nil, &PersistenceError{Op: "get quiz submission", Err: err}
	}

	if err := s.validator.ValidateQuizSelections(catalog.Questions, selections); err != nil {
		return nil, err
	}

	correct := 0
	for i := range catalog.Questions {
		if catalog.Questions[i].IsCorrectSelection(selections[catalog.Questions[i].ID]) {
			correct++
		}
	}
	score := ScorePercent(correct, catalog.Len())

	submission := &models.Submission{
		AssessmentID: quizID,
		UserID:       userID,
		State:        models.SubmissionSubmitted,
		StartedAt:    now,
		SubmittedAt:  &now,
		ScorePercent: &score,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		inserted, err := txRepo.Submission().CreateSubmitted(ctx, nil, submission)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrQuizAlreadyCompleted
		}

		answers := make([]*models.Answer, 0, catalog.Len())
		for i := range catalog.Questions {
			q := &catalog.Questions[i]
			selected := selections[q.ID]
			isCorrect := q.IsCorrectSelection(selected)
			answer := &models.Answer{
				SubmissionID: submission.ID,
				UserID:       userID,
				AssessmentID: quizID,
				QuestionID:   q.ID,
				IsCorrect:    &isCorrect,
			}
			answer.SetValue(models.SelectedOptionAnswer{Index: selected})
			answers = append(answers, answer)
		}
		return txRepo.Answer().CreateBatch(ctx, nil, answers)
	})
	if err != nil {
		if errors.Is(err, ErrQuizAlreadyCompleted) {
			return nil, err
		}
		s.logger.Error("Failed to store quiz submission",
			"assessment_id", quizID,
			"user_id", userID,
			"error", err)
		return nil, &PersistenceError{Op: "submit quiz", Err: err}
	}

	passed := score >= s.config.QuizPassingScore
	s.metrics.ObserveFinalized(string(models.KindQuiz))
	s.metrics.ObserveQuizScore(score)
	s.logger.Info("Quiz submitted",
		"submission_id", submission.ID,
		"assessment_id", quizID,
		"user_id", userID,
		"score_percent", score,
		"passed", passed)

	publishEvent(ctx, s.publisher, s.logger, events.SubmissionFinalized, events.SubmissionFinalizedData{
		SubmissionID: submission.ID,
		AssessmentID: quizID,
		UserID:       userID,
		Kind:         string(models.KindQuiz),
		SubmittedAt:  now,
	})
	publishEvent(ctx, s.publisher, s.logger, events.QuizScored, events.QuizScoredData{
		SubmissionID: submission.ID,
		AssessmentID: quizID,
		UserID:       userID,
		ScorePercent: score,
		Passed:       passed,
	})

	result := &QuizResult{
		SubmissionID: submission.ID,
		AssessmentID: quizID,
		ScorePercent: score,
		Correct:      correct,
		Total:        catalog.Len(),
		Passed:       passed,
		PassingScore: s.config.QuizPassingScore,
		SubmittedAt:  now,
		RewardStatus: models.RewardNotEligible,
	}

	if !passed {
		s.metrics.ObserveReward(string(models.KindQuiz), string(models.RewardNotEligible))
		return result, nil
	}

	status, err := s.rewards.Issue(ctx, RewardRequest{
		UserID:          userID,
		AssessmentID:    quizID,
		SubmissionID:    submission.ID,
		AssessmentTitle: catalog.Assessment.Title,
		AssessmentKind:  models.KindQuiz,
		Points:          catalog.Assessment.PointValue,
		ScorePercent:    &score,
	})
	result.RewardStatus = status
	if err != nil {
		result.RewardStatus = models.RewardPending
		result.RewardError = err
	}
	return result, nil
}

func (s *quizService) Result(ctx context.Context, userID string, quizID uint) (*QuizResult, error) {
	catalog, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByUserAndAssessment(ctx, s.db, userID, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, &PersistenceError{Op: "get quiz submission", Err: err}
	}
	return s.result(ctx, catalog, submission)
}

func (s *quizService) loadQuiz(ctx context.Context, quizID uint) (*Catalog, error) {
	catalog, err := s.catalog.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !catalog.Assessment.IsQuiz() {
		return nil, ErrWrongAssessmentKind
	}
	return catalog, nil
}

// result rebuilds a stored quiz outcome. A passed quiz without a reward row reports pending.
func (s *quizService) result(ctx context.Context, catalog *Catalog, submission *models.Submission) (*QuizResult, error) {
	answers, err := s.repo.Answer().ListByUserAndAssessment(ctx, s.db, submission.UserID, submission.AssessmentID)
	if err != nil {
		return nil, &PersistenceError{Op: "list quiz answers", Err: err}
	}

	correct := 0
	for _, a := range answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}

	var score int
	if submission.ScorePercent != nil {
		score = *submission.ScorePercent
	} else {
		score = ScorePercent(correct, catalog.Len())
	}

	result := &QuizResult{
		SubmissionID: submission.ID,
		AssessmentID: submission.AssessmentID,
		ScorePercent: score,
		Correct:      correct,
		Total:        catalog.Len(),
		Passed:       score >= s.config.QuizPassingScore,
		PassingScore: s.config.QuizPassingScore,
		RewardStatus: models.RewardNotEligible,
	}
	if p, ok := submission.Progress().(models.Submitted); ok {
		result.SubmittedAt = p.At
	}

	if result.Passed {
		has, err := s.rewards.HasReward(ctx, submission.UserID, submission.AssessmentID)
		if err != nil {
			return nil, &PersistenceError{Op: "check reward", Err: err}
		}
		result.RewardStatus = models.RewardPending
		if has {
			result.RewardStatus = models.RewardIssued
		}
	}
	return result, nil
}

// ScorePercent rounds half away from zero; an empty quiz scores 0
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
