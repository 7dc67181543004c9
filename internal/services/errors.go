package services

import (
	"errors"
	"fmt"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

var (
	// Catalog
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrNoQuestions            = errors.New("assessment has no questions")
	ErrWrongAssessmentKind    = errors.New("operation not supported for this assessment kind")
	ErrAssessmentNotPublished = errors.New("assessment is not published")

	// Submissions and answers
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrSubmissionReadOnly      = errors.New("submission is already submitted")
	ErrQuestionNotInAssessment = errors.New("question does not belong to assessment")

	// Navigation
	ErrPositionMismatch = errors.New("question is ahead of the current position")
	ErrAtFirstQuestion  = errors.New("already at the first question")

	// Quiz
	ErrQuizWindowClosed     = errors.New("quiz is not available at this time")
	ErrQuizAlreadyCompleted = errors.New("quiz already completed")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// CatalogLoadError means the assessment or its questions could not be read
type CatalogLoadError struct {
	AssessmentID uint
	Err          error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("failed to load catalog for assessment %d: %v", e.AssessmentID, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// PersistenceError is a failed store write; the caller may retry
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FinalizationError means the submitted transition did not happen; the submission is still in progress
type FinalizationError struct {
	SubmissionID uint
	Err          error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("failed to finalize submission %d: %v", e.SubmissionID, e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }

// RewardIssuanceError is reported after a successful finalization and never undoes it
type RewardIssuanceError struct {
	UserID       string
	AssessmentID uint
	Err          error
}

func (e *RewardIssuanceError) Error() string {
	return fmt.Sprintf("failed to issue reward for user %s on assessment %d: %v", e.UserID, e.AssessmentID, e.Err)
}

func (e *RewardIssuanceError) Unwrap() error { return e.Err }

type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// IsRetryable reports errors after which no state changed
func IsRetryable(err error) bool {
	var pe *PersistenceError
	var fe *FinalizationError
	return errors.As(err, &pe) || errors.As(err, &fe)
}

func IsValidationError(err error) bool {
	var ves ValidationErrors
	var ve ValidationError
	return errors.As(err, &ves) || errors.As(err, &ve)
}
