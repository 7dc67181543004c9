package models

import (
	"time"
)

type SubmissionState string

const (
	SubmissionInProgress SubmissionState = "in_progress"
	SubmissionSubmitted  SubmissionState = "submitted"
)

// Submission is the single progress record of one user for one assessment
type Submission struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	AssessmentID uint            `json:"assessment_id" gorm:"not null;uniqueIndex:idx_submissions_user_assessment,priority:2"`
	UserID       string          `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_submissions_user_assessment,priority:1"`
	State        SubmissionState `json:"state" gorm:"not null;size:32;default:in_progress"`
	StartedAt    time.Time       `json:"started_at" gorm:"not null"`
	SubmittedAt  *time.Time      `json:"submitted_at"`

	// Questionnaire: order_index of the question being answered
	CurrentQuestionOrder *int `json:"current_question_order"`
	// Quiz: percentage score, set once on submit
	ScorePercent *int `json:"score_percent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Answers    []Answer    `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) IsSubmitted() bool {
	return s.State == SubmissionSubmitted
}

// SubmissionProgress is either InProgress or Submitted
type SubmissionProgress interface {
	isSubmissionProgress()
}

type InProgress struct {
	// Order index of the current question; nil when no position was recorded
	Position *int
}

type Submitted struct {
	At time.Time
}

func (InProgress) isSubmissionProgress() {}
func (Submitted) isSubmissionProgress()  {}

// Progress returns the explicit state of the submission
func (s *Submission) Progress() SubmissionProgress {
	if s.State == SubmissionSubmitted {
		at := s.UpdatedAt
		if s.SubmittedAt != nil {
			at = *s.SubmittedAt
		}
		return Submitted{At: at}
	}
	return InProgress{Position: s.CurrentQuestionOrder}
}
