package models

import (
	"fmt"
	"time"
)

type AnswerKind string

const (
	AnswerRating         AnswerKind = "rating"
	AnswerText           AnswerKind = "text"
	AnswerSelectedOption AnswerKind = "selected_option"
)

// AnswerValue is implemented by RatingAnswer, TextAnswer and SelectedOptionAnswer
type AnswerValue interface {
	Kind() AnswerKind
	isAnswerValue()
}

type RatingAnswer struct {
	Value int `json:"value"`
}

type TextAnswer struct {
	Text string `json:"text"`
}

type SelectedOptionAnswer struct {
	Index int `json:"index"`
}

func (RatingAnswer) Kind() AnswerKind         { return AnswerRating }
func (TextAnswer) Kind() AnswerKind           { return AnswerText }
func (SelectedOptionAnswer) Kind() AnswerKind { return AnswerSelectedOption }

func (RatingAnswer) isAnswerValue()         {}
func (TextAnswer) isAnswerValue()           {}
func (SelectedOptionAnswer) isAnswerValue() {}

// Answer is one stored response per (user, assessment, question)
type Answer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;index"`
	UserID       string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_answers_user_assessment_question,priority:1"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;uniqueIndex:idx_answers_user_assessment_question,priority:2"`
	QuestionID   uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_user_assessment_question,priority:3"`

	Kind        AnswerKind `json:"kind" gorm:"not null;size:32"`
	RatingValue *int       `json:"rating_value,omitempty"`
	TextValue   *string    `json:"text_value,omitempty" gorm:"type:text"`
	OptionIndex *int       `json:"option_index,omitempty"`

	// Quiz only
	IsCorrect *bool `json:"is_correct,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}

// SetValue stores v in the column matching its kind and clears the others
func (a *Answer) SetValue(v AnswerValue) {
	a.RatingValue, a.TextValue, a.OptionIndex = nil, nil, nil
	a.Kind = v.Kind()

	switch val := v.(type) {
	case RatingAnswer:
		n := val.Value
		a.RatingValue = &n
	case TextAnswer:
		s := val.Text
		a.TextValue = &s
	case SelectedOptionAnswer:
		i := val.Index
		a.OptionIndex = &i
	}
}

// Value rebuilds the tagged value from the stored columns
func (a *Answer) Value() (AnswerValue, error) {
	switch a.Kind {
	case AnswerRating:
		if a.RatingValue == nil {
			return nil, fmt.Errorf("answer %d: rating value missing", a.ID)
		}
		return RatingAnswer{Value: *a.RatingValue}, nil
	case AnswerText:
		if a.TextValue == nil {
			return nil, fmt.Errorf("answer %d: text value missing", a.ID)
		}
		return TextAnswer{Text: *a.TextValue}, nil
	case AnswerSelectedOption:
		if a.OptionIndex == nil {
			return nil, fmt.Errorf("answer %d: option index missing", a.ID)
		}
		return SelectedOptionAnswer{Index: *a.OptionIndex}, nil
	default:
		return nil, fmt.Errorf("answer %d: unknown kind %q", a.ID, a.Kind)
	}
}
