package services

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type navigationService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	catalog      CatalogService
	submissions  SubmissionService
	answers      AnswerService
	finalization FinalizationService
}

func NewNavigationService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	catalog CatalogService,
	submissions SubmissionService,
	answers AnswerService,
	finalization FinalizationService,
) NavigationService {
	return &navigationService{
		repo:         repo,
		db:           db,
		logger:       logger,
		catalog:      catalog,
		submissions:  submissions,
		answers:      answers,
		finalization: finalization,
	}
}

// Enter starts or resumes the questionnaire. A stored position that no longer matches a question
// resolves to the first question without being written back. Unpublished questionnaires are only
// open for review of an already submitted submission.
func (s *navigationService) Enter(ctx context.Context, userID string, assessmentID uint) (*NavigationView, error) {
	catalog, err := s.loadQuestionnaire(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	if !catalog.Assessment.IsPublished() {
		submission, err := s.submittedOnly(ctx, userID, assessmentID)
		if err != nil {
			return nil, err
		}
		return s.view(ctx, catalog, submission, 0)
	}

	first := catalog.Questions[0].OrderIndex
	submission, err := s.submissions.GetOrCreate(ctx, userID, assessmentID, &first)
	if err != nil {
		return nil, err
	}

	if submission.IsSubmitted() {
		return s.view(ctx, catalog, submission, 0)
	}

	return s.view(ctx, catalog, submission, catalog.ResolvePosition(submission.CurrentQuestionOrder))
}

func (s *navigationService) Next(ctx context.Context, userID string, assessmentID uint, req NavigationRequest) (*NavigationView, error) {
	catalog, submission, idx, err := s.prepare(ctx, userID, assessmentID, req.QuestionID)
	if err != nil {
		return nil, err
	}

	if submission.IsSubmitted() {
		return s.view(ctx, catalog, submission, min(idx+1, catalog.Last()))
	}

	if req.Answer == nil {
		return nil, ValidationErrors{NewValidationError("answer", "answer is required", nil)}
	}

	current := catalog.ResolvePosition(submission.CurrentQuestionOrder)
	switch {
	case idx > current:
		return nil, ErrPositionMismatch
	case idx < current:
		// Repeated request for a question already passed: store the answer, stay put
		if _, err := s.answers.SaveForSubmission(ctx, catalog, submission, req.QuestionID, req.Answer); err != nil {
			return s.readOnlyOr(ctx, catalog, submission, idx, err)
		}
		return s.view(ctx, catalog, submission, current)
	}

	if _, err := s.answers.SaveForSubmission(ctx, catalog, submission, req.QuestionID, req.Answer); err != nil {
		return s.readOnlyOr(ctx, catalog, submission, idx, err)
	}

	if current == catalog.Last() {
		outcome, err := s.finalization.Finalize(ctx, catalog, submission)
		if err != nil {
			return nil, err
		}
		view, err := s.view(ctx, catalog, submission, current)
		if err != nil {
			return nil, err
		}
		view.Finalization = outcome
		return view, nil
	}

	return s.move(ctx, catalog, submission, current+1)
}

func (s *navigationService) Back(ctx context.Context, userID string, assessmentID uint, req NavigationRequest) (*NavigationView, error) {
	catalog, submission, idx, err := s.prepare(ctx, userID, assessmentID, req.QuestionID)
	if err != nil {
		return nil, err
	}

	if submission.IsSubmitted() {
		if idx == 0 {
			return nil, ErrAtFirstQuestion
		}
		return s.view(ctx, catalog, submission, idx-1)
	}

	current := catalog.ResolvePosition(submission.CurrentQuestionOrder)
	switch {
	case idx > current:
		// Already moved back by an earlier request
		return s.view(ctx, catalog, submission, current)
	case current == 0:
		return nil, ErrAtFirstQuestion
	case idx < current:
		return nil, ErrPositionMismatch
	}

	if req.Answer != nil {
		if _, err := s.answers.SaveForSubmission(ctx, catalog, submission, req.QuestionID, req.Answer); err != nil {
			s.logger.Warn("Answer not saved on back navigation",
				"submission_id", submission.ID,
				"question_id", req.QuestionID,
				"error", err)
		}
	}

	return s.move(ctx, catalog, submission, current-1)
}

func (s *navigationService) loadQuestionnaire(ctx context.Context, assessmentID uint) (*Catalog, error) {
	catalog, err := s.catalog.Load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if !catalog.Assessment.IsQuestionnaire() {
		return nil, ErrWrongAssessmentKind
	}
	return catalog, nil
}

// prepare loads the catalog and the existing submission and resolves the requested question
func (s *navigationService) prepare(ctx context.Context, userID string, assessmentID, questionID uint) (*Catalog, *models.Submission, int, error) {
	catalog, err := s.loadQuestionnaire(ctx, assessmentID)
	if err != nil {
		return nil, nil, 0, err
	}

	idx, ok := catalog.IndexByQuestionID(questionID)
	if !ok {
		return nil, nil, 0, ErrQuestionNotInAssessment
	}

	if !catalog.Assessment.IsPublished() {
		submission, err := s.submittedOnly(ctx, userID, assessmentID)
		if err != nil {
			return nil, nil, 0, err
		}
		return catalog, submission, idx, nil
	}

	submission, err := s.submissions.Get(ctx, userID, assessmentID)
	if err != nil {
		return nil, nil, 0, err
	}
	return catalog, submission, idx, nil
}

// submittedOnly returns the caller's submission of an unpublished questionnaire if it is already submitted
func (s *navigationService) submittedOnly(ctx context.Context, userID string, assessmentID uint) (*models.Submission, error) {
	submission, err := s.submissions.Get(ctx, userID, assessmentID)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return nil, ErrAssessmentNotPublished
		}
		return nil, err
	}
	if !submission.IsSubmitted() {
		return nil, ErrAssessmentNotPublished
	}
	return submission, nil
}

// move persists the new position and returns its view
func (s *navigationService) move(ctx context.Context, catalog *Catalog, submission *models.Submission, idx int) (*NavigationView, error) {
	order := catalog.Questions[idx].OrderIndex
	if err := s.repo.Submission().UpdatePosition(ctx, s.db, submission.ID, order); err != nil {
		if errors.Is(err, repositories.ErrNotInProgress) {
			return s.reloadReadOnly(ctx, catalog, submission, idx)
		}
		s.logger.Error("Failed to update position",
			"submission_id", submission.ID,
			"question_order", order,
			"error", err)
		return nil, &PersistenceError{Op: "update position", Err: err}
	}

	submission.CurrentQuestionOrder = &order
	return s.view(ctx, catalog, submission, idx)
}

// readOnlyOr turns a write rejected by a concurrent finalize into a review view
func (s *navigationService) readOnlyOr(ctx context.Context, catalog *Catalog, submission *models.Submission, idx int, err error) (*NavigationView, error) {
	if errors.Is(err, ErrSubmissionReadOnly) {
		return s.reloadReadOnly(ctx, catalog, submission, idx)
	}
	return nil, err
}

func (s *navigationService) reloadReadOnly(ctx context.Context, catalog *Catalog, submission *models.Submission, idx int) (*NavigationView, error) {
	current, err := s.repo.Submission().GetByID(ctx, s.db, submission.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "reload submission", Err: err}
	}
	return s.view(ctx, catalog, current, idx)
}

func (s *navigationService) view(ctx context.Context, catalog *Catalog, submission *models.Submission, idx int) (*NavigationView, error) {
	answers, err := s.answers.List(ctx, submission.UserID, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	question := &catalog.Questions[idx]
	view := &NavigationView{
		AssessmentID: catalog.Assessment.ID,
		SubmissionID: submission.ID,
		Title:        catalog.Assessment.Title,
		State:        submission.State,
		Position:     idx,
		Total:        catalog.Len(),
		IsFirst:      idx == 0,
		IsLast:       idx == catalog.Last(),
		ReadOnly:     submission.IsSubmitted(),
		Question:     question,
		Answers:      answers,
	}
	for _, a := range answers {
		if a.QuestionID == question.ID {
			view.Answer = a
			break
		}
	}
	return view, nil
}
