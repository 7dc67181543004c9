package validator

import (
	"fmt"
	"time"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

// AnswerPayload is the wire form of an answer; exactly the field matching Type is read
type AnswerPayload struct {
	Type        models.AnswerKind `json:"type" validate:"required,answer_type"`
	Rating      *int              `json:"rating,omitempty"`
	Text        *string           `json:"text,omitempty"`
	OptionIndex *int              `json:"option_index,omitempty" validate:"omitempty,min=0"`
}

// ToAnswerValue converts the payload into its tagged value
func (p AnswerPayload) ToAnswerValue() (models.AnswerValue, error) {
	switch p.Type {
	case models.AnswerRating:
		if p.Rating == nil {
			return nil, ValidationErrors{{Field: "rating", Message: "is required for rating answers", Rule: "required"}}
		}
		return models.RatingAnswer{Value: *p.Rating}, nil
	case models.AnswerText:
		if p.Text == nil {
			return nil, ValidationErrors{{Field: "text", Message: "is required for text answers", Rule: "required"}}
		}
		return models.TextAnswer{Text: *p.Text}, nil
	case models.AnswerSelectedOption:
		if p.OptionIndex == nil {
			return nil, ValidationErrors{{Field: "option_index", Message: "is required for selected_option answers", Rule: "required"}}
		}
		return models.SelectedOptionAnswer{Index: *p.OptionIndex}, nil
	default:
		return nil, ValidationErrors{{Field: "type", Message: fmt.Sprintf("unknown answer type %q", p.Type), Value: p.Type, Rule: "answer_type"}}
	}
}

// NextRequest saves the answer of the named question and moves forward.
// The answer may be omitted when paging through a submitted questionnaire.
type NextRequest struct {
	QuestionID uint           `json:"question_id" validate:"required"`
	Answer     *AnswerPayload `json:"answer,omitempty" validate:"omitempty"`
}

// BackRequest moves backward; the answer is saved best effort when present
type BackRequest struct {
	QuestionID uint           `json:"question_id" validate:"required"`
	Answer     *AnswerPayload `json:"answer,omitempty" validate:"omitempty"`
}

type SaveAnswerRequest struct {
	Answer AnswerPayload `json:"answer" validate:"required"`
}

type QuizSelection struct {
	QuestionID  uint `json:"question_id" validate:"required"`
	OptionIndex *int `json:"option_index" validate:"required,min=0"`
}

type QuizSubmitRequest struct {
	Selections []QuizSelection `json:"selections" validate:"required,min=1,dive"`
}

// SelectionMap indexes the selections by question id; later duplicates win
func (r QuizSubmitRequest) SelectionMap() map[uint]int {
	out := make(map[uint]int, len(r.Selections))
	for _, s := range r.Selections {
		if s.OptionIndex != nil {
			out[s.QuestionID] = *s.OptionIndex
		}
	}
	return out
}

// AssessmentImportRequest is one catalog read from an import workbook
type AssessmentImportRequest struct {
	Title          string                  `json:"title" validate:"required,notblank,max=200"`
	Description    *string                 `json:"description,omitempty" validate:"omitempty,max=1000"`
	Kind           models.AssessmentKind   `json:"kind" validate:"required,assessment_kind"`
	PointValue     int                     `json:"point_value" validate:"min=0"`
	Status         models.AssessmentStatus `json:"status" validate:"omitempty,oneof=draft published archived"`
	AvailableFrom  *time.Time              `json:"available_from,omitempty"`
	AvailableUntil *time.Time              `json:"available_until,omitempty"`
	Questions      []QuestionImportRequest `json:"questions" validate:"required,min=1,dive"`
}

type QuestionImportRequest struct {
	OrderIndex         int                   `json:"order_index" validate:"min=0"`
	Prompt             string                `json:"prompt" validate:"required,notblank,max=2000"`
	Type               models.QuestionType   `json:"type" validate:"required,question_type"`
	CorrectOptionIndex *int                  `json:"correct_option_index,omitempty" validate:"omitempty,min=0"`
	Options            []OptionImportRequest `json:"options" validate:"dive"`
}

type OptionImportRequest struct {
	Label       string `json:"label" validate:"required,notblank,max=500"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
	RatingValue *int   `json:"rating_value,omitempty"`
	OptionIndex *int   `json:"option_index,omitempty" validate:"omitempty,min=0"`
}

// ToModel builds the assessment with nested questions and options
func (r *AssessmentImportRequest) ToModel(createdBy string) *models.Assessment {
	status := r.Status
	if status == "" {
		status = models.StatusDraft
	}

	a := &models.Assessment{
		Title:          r.Title,
		Description:    r.Description,
		Kind:           r.Kind,
		PointValue:     r.PointValue,
		Status:         status,
		AvailableFrom:  r.AvailableFrom,
		AvailableUntil: r.AvailableUntil,
	}
	if createdBy != "" {
		a.CreatedBy = &createdBy
	}

	for _, q := range r.Questions {
		question := models.Question{
			OrderIndex:         q.OrderIndex,
			Prompt:             q.Prompt,
			Type:               q.Type,
			CorrectOptionIndex: q.CorrectOptionIndex,
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, models.QuestionOption{
				Label:       o.Label,
				OrderIndex:  o.OrderIndex,
				RatingValue: o.RatingValue,
				OptionIndex: o.OptionIndex,
			})
		}
		a.Questions = append(a.Questions, question)
	}
	return a
}
