package validator

import (
	"fmt"
	"strings"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

// BusinessValidator handles the rules that need the catalog, not just the request
type BusinessValidator struct {
	v *Validator
}

func NewBusinessValidator(v *Validator) *BusinessValidator {
	if v == nil {
		v = New()
	}
	return &BusinessValidator{v: v}
}

// ValidateAnswer checks value against the question type. Nothing may be written when it fails.
func (bv *BusinessValidator) ValidateAnswer(question *models.Question, value models.AnswerValue) error {
	if value == nil {
		return ValidationErrors{{Field: "answer", Message: "is required", Rule: "required"}}
	}

	if want := question.AnswerKind(); value.Kind() != want {
		return ValidationErrors{{
			Field:   "answer.type",
			Message: fmt.Sprintf("question %d expects a %s answer", question.ID, want),
			Value:   value.Kind(),
			Rule:    "answer_type",
		}}
	}

	switch val := value.(type) {
	case models.RatingAnswer:
		if !question.HasRatingValue(val.Value) {
			return ValidationErrors{{
				Field:   "answer.rating",
				Message: "is not one of the offered rating values",
				Value:   val.Value,
				Rule:    "rating_value",
			}}
		}
	case models.TextAnswer:
		if strings.TrimSpace(val.Text) == "" {
			return ValidationErrors{{Field: "answer.text", Message: "must not be blank", Rule: "notblank"}}
		}
	case models.SelectedOptionAnswer:
		if !question.HasOptionIndex(val.Index) {
			return ValidationErrors{{
				Field:   "answer.option_index",
				Message: "does not name an option of the question",
				Value:   val.Index,
				Rule:    "option_index",
			}}
		}
	}
	return nil
}

// ValidateQuizSelections requires one valid selection per question
func (bv *BusinessValidator) ValidateQuizSelections(questions []models.Question, selections map[uint]int) error {
	var errs ValidationErrors
	known := make(map[uint]bool, len(questions))

	for i := range questions {
		q := &questions[i]
		known[q.ID] = true

		idx, ok := selections[q.ID]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("selections[%d]", q.ID),
				Message: "question has no selection",
				Rule:    "required",
			})
			continue
		}
		if !q.HasOptionIndex(idx) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("selections[%d]", q.ID),
				Message: "does not name an option of the question",
				Value:   idx,
				Rule:    "option_index",
			})
		}
	}

	for id := range selections {
		if !known[id] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("selections[%d]", id),
				Message: "question is not part of this quiz",
				Rule:    "question_id",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateImport checks a catalog before it is stored
func (bv *BusinessValidator) ValidateImport(req *AssessmentImportRequest) error {
	if err := bv.v.Validate(req); err != nil {
		return err
	}

	var errs ValidationErrors
	if req.AvailableFrom != nil && req.AvailableUntil != nil && !req.AvailableUntil.After(*req.AvailableFrom) {
		errs = append(errs, ValidationError{Field: "available_until", Message: "must be after available_from", Rule: "window"})
	}

	orders := make(map[int]bool, len(req.Questions))
	for i, q := range req.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if orders[q.OrderIndex] {
			errs = append(errs, ValidationError{Field: field + ".order_index", Message: "duplicate order", Value: q.OrderIndex, Rule: "unique"})
		}
		orders[q.OrderIndex] = true

		switch req.Kind {
		case models.KindQuestionnaire:
			if q.CorrectOptionIndex != nil {
				errs = append(errs, ValidationError{Field: field + ".correct_option_index", Message: "questionnaire questions have no correct answer", Rule: "business_logic"})
			}
			if q.Type == models.QuestionRating {
				for j, o := range q.Options {
					if o.RatingValue == nil {
						errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.options[%d].rating_value", field, j), Message: "is required for rating questions", Rule: "required"})
					}
				}
			}
		case models.KindQuiz:
			if q.Type != models.QuestionMultipleChoice {
				errs = append(errs, ValidationError{Field: field + ".type", Message: "quiz questions must be multiple_choice", Value: q.Type, Rule: "business_logic"})
				continue
			}
			if q.CorrectOptionIndex == nil {
				errs = append(errs, ValidationError{Field: field + ".correct_option_index", Message: "is required for quiz questions", Rule: "required"})
				continue
			}
			if !hasOptionIndex(q.Options, *q.CorrectOptionIndex) {
				errs = append(errs, ValidationError{Field: field + ".correct_option_index", Message: "does not name an option", Value: *q.CorrectOptionIndex, Rule: "business_logic"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func hasOptionIndex(options []OptionImportRequest, idx int) bool {
	for _, o := range options {
		if o.OptionIndex != nil && *o.OptionIndex == idx {
			return true
		}
	}
	return false
}
