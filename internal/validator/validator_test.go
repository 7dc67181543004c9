package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestValidator_NextRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       NextRequest
		wantField string
	}{
		{
			name: "valid",
			req:  NextRequest{QuestionID: 1, Answer: &AnswerPayload{Type: models.AnswerRating, Rating: intPtr(3)}},
		},
		{
			name: "answer omitted",
			req:  NextRequest{QuestionID: 1},
		},
		{
			name:      "missing question",
			req:       NextRequest{Answer: &AnswerPayload{Type: models.AnswerText, Text: strPtr("hi")}},
			wantField: "question_id",
		},
		{
			name:      "unknown answer type",
			req:       NextRequest{QuestionID: 1, Answer: &AnswerPayload{Type: "essay"}},
			wantField: "answer.type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ves ValidationErrors
			require.ErrorAs(t, err, &ves)
			assert.Equal(t, tt.wantField, ves[0].Field)
		})
	}
}

func TestAnswerPayload_ToAnswerValue(t *testing.T) {
	v, err := AnswerPayload{Type: models.AnswerSelectedOption, OptionIndex: intPtr(2)}.ToAnswerValue()
	require.NoError(t, err)
	assert.Equal(t, models.SelectedOptionAnswer{Index: 2}, v)

	_, err = AnswerPayload{Type: models.AnswerRating}.ToAnswerValue()
	assert.Error(t, err)

	v, err = AnswerPayload{Type: models.AnswerText, Text: strPtr("thanks")}.ToAnswerValue()
	require.NoError(t, err)
	assert.Equal(t, models.TextAnswer{Text: "thanks"}, v)
}

func TestQuizSubmitRequest(t *testing.T) {
	v := New()

	err := v.Validate(&QuizSubmitRequest{})
	assert.Error(t, err)

	req := QuizSubmitRequest{Selections: []QuizSelection{{QuestionID: 1, OptionIndex: intPtr(0)}, {QuestionID: 2, OptionIndex: intPtr(1)}}}
	require.NoError(t, v.Validate(&req))
	assert.Equal(t, map[uint]int{1: 0, 2: 1}, req.SelectionMap())

	bad := QuizSubmitRequest{Selections: []QuizSelection{{QuestionID: 1}}}
	assert.Error(t, v.Validate(&bad))
}

func ratingQuestion() *models.Question {
	return &models.Question{
		ID:   10,
		Type: models.QuestionRating,
		Options: []models.QuestionOption{
			{RatingValue: intPtr(1)}, {RatingValue: intPtr(3)}, {RatingValue: intPtr(5)},
		},
	}
}

func TestBusinessValidator_ValidateAnswer(t *testing.T) {
	bv := NewBusinessValidator(nil)
	choice := &models.Question{ID: 11, Type: models.QuestionMultipleChoice, Options: []models.QuestionOption{{OptionIndex: intPtr(0)}, {OptionIndex: intPtr(1)}}}

	tests := []struct {
		name     string
		question *models.Question
		value    models.AnswerValue
		wantErr  bool
	}{
		{name: "offered rating", question: ratingQuestion(), value: models.RatingAnswer{Value: 3}},
		{name: "rating not offered", question: ratingQuestion(), value: models.RatingAnswer{Value: 4}, wantErr: true},
		{name: "rating without options", question: &models.Question{Type: models.QuestionRating}, value: models.RatingAnswer{Value: 1}, wantErr: true},
		{name: "text", question: &models.Question{Type: models.QuestionText}, value: models.TextAnswer{Text: " ok "}},
		{name: "blank text", question: &models.Question{Type: models.QuestionText}, value: models.TextAnswer{Text: "  \t"}, wantErr: true},
		{name: "kind mismatch", question: &models.Question{Type: models.QuestionText}, value: models.RatingAnswer{Value: 1}, wantErr: true},
		{name: "option", question: choice, value: models.SelectedOptionAnswer{Index: 1}},
		{name: "unknown option", question: choice, value: models.SelectedOptionAnswer{Index: 7}, wantErr: true},
		{name: "nil value", question: choice, value: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bv.ValidateAnswer(tt.question, tt.value)
			if tt.wantErr {
				var ves ValidationErrors
				assert.ErrorAs(t, err, &ves)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBusinessValidator_ValidateQuizSelections(t *testing.T) {
	bv := NewBusinessValidator(nil)
	questions := []models.Question{
		{ID: 1, Options: []models.QuestionOption{{OptionIndex: intPtr(0)}, {OptionIndex: intPtr(1)}}},
		{ID: 2, Options: []models.QuestionOption{{OptionIndex: intPtr(0)}}},
	}

	assert.NoError(t, bv.ValidateQuizSelections(questions, map[uint]int{1: 1, 2: 0}))

	err := bv.ValidateQuizSelections(questions, map[uint]int{1: 1})
	var ves ValidationErrors
	require.ErrorAs(t, err, &ves)
	assert.Len(t, ves, 1)

	assert.Error(t, bv.ValidateQuizSelections(questions, map[uint]int{1: 1, 2: 0, 99: 0}))
	assert.Error(t, bv.ValidateQuizSelections(questions, map[uint]int{1: 5, 2: 0}))
}

func TestBusinessValidator_ValidateImport(t *testing.T) {
	bv := NewBusinessValidator(nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := from.Add(-time.Hour)

	quiz := &AssessmentImportRequest{
		Title: "Kindness quiz",
		Kind:  models.KindQuiz,
		Questions: []QuestionImportRequest{{
			Prompt:             "Which is kind?",
			Type:               models.QuestionMultipleChoice,
			CorrectOptionIndex: intPtr(1),
			Options: []OptionImportRequest{
				{Label: "A", OptionIndex: intPtr(0)},
				{Label: "B", OptionIndex: intPtr(1)},
			},
		}},
	}
	require.NoError(t, bv.ValidateImport(quiz))

	quiz.Questions[0].CorrectOptionIndex = intPtr(4)
	assert.Error(t, bv.ValidateImport(quiz))

	quiz.Questions[0].CorrectOptionIndex = intPtr(1)
	quiz.AvailableFrom, quiz.AvailableUntil = &from, &until
	assert.Error(t, bv.ValidateImport(quiz))

	questionnaire := &AssessmentImportRequest{
		Title: "Check-in",
		Kind:  models.KindQuestionnaire,
		Questions: []QuestionImportRequest{
			{OrderIndex: 0, Prompt: "Mood", Type: models.QuestionText, CorrectOptionIndex: intPtr(0)},
		},
	}
	assert.Error(t, bv.ValidateImport(questionnaire))

	assert.Error(t, bv.ValidateImport(&AssessmentImportRequest{Title: "Empty", Kind: models.KindQuiz}))
}
