package models

import (
	"time"
)

type QuestionType string

const (
	QuestionRating         QuestionType = "rating"
	QuestionText           QuestionType = "text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;uniqueIndex:idx_questions_assessment_order"`
	OrderIndex   int          `json:"order_index" gorm:"not null;uniqueIndex:idx_questions_assessment_order"`
	Prompt       string       `json:"prompt" gorm:"type:text;not null"`
	Type         QuestionType `json:"type" gorm:"not null;size:32"`

	// Quiz only. Never sent to participants, see Catalog.PublicView.
	CorrectOptionIndex *int `json:"correct_option_index,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionOption struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	QuestionID  uint   `json:"question_id" gorm:"not null;index"`
	Label       string `json:"label" gorm:"not null;size:500"`
	OrderIndex  int    `json:"order_index" gorm:"not null;default:0"`
	RatingValue *int   `json:"rating_value,omitempty"`
	OptionIndex *int   `json:"option_index,omitempty"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// AnswerKind returns the answer variant this question accepts
func (q *Question) AnswerKind() AnswerKind {
	switch q.Type {
	case QuestionRating:
		return AnswerRating
	case QuestionText:
		return AnswerText
	default:
		return AnswerSelectedOption
	}
}

// HasRatingValue reports whether v is one of the rating values offered by the options
func (q *Question) HasRatingValue(v int) bool {
	for _, opt := range q.Options {
		if opt.RatingValue != nil && *opt.RatingValue == v {
			return true
		}
	}
	return false
}

func (q *Question) HasOptionIndex(i int) bool {
	for _, opt := range q.Options {
		if opt.OptionIndex != nil && *opt.OptionIndex == i {
			return true
		}
	}
	return false
}

// IsCorrectSelection compares a selection with the recorded correct index.
// Questions without a correct index never score.
func (q *Question) IsCorrectSelection(i int) bool {
	return q.CorrectOptionIndex != nil && *q.CorrectOptionIndex == i
}
