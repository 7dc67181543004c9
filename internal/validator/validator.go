package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validator wraps go-playground/validator with the service's custom rules
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report json names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate returns ValidationErrors, or nil when s is valid
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against tag
func (v *Validator) Var(field string, value interface{}, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		ves := ToValidationErrors(err)
		for i := range ves {
			ves[i].Field = field
		}
		return ves
	}
	return nil
}

func (v *Validator) registerRules() {
	_ = v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	_ = v.validate.RegisterValidation("answer_type", func(fl validator.FieldLevel) bool {
		switch models.AnswerKind(fl.Field().String()) {
		case models.AnswerRating, models.AnswerText, models.AnswerSelectedOption:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("assessment_kind", func(fl validator.FieldLevel) bool {
		switch models.AssessmentKind(fl.Field().String()) {
		case models.KindQuestionnaire, models.KindQuiz:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.QuestionRating, models.QuestionText, models.QuestionMultipleChoice:
			return true
		}
		return false
	})
}

// ToValidationErrors converts validator errors; other errors become a single entry
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the top level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "answer_type":
		return "must be one of: rating, text, selected_option"
	case "assessment_kind":
		return "must be questionnaire or quiz"
	case "question_type":
		return "must be one of: rating, text, multiple_choice"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
