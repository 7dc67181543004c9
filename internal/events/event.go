package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "challenge-service"
	EventVersion = "1.0"
)

type EventType string

const (
	SubmissionFinalized EventType = "submission.finalized"
	QuizScored          EventType = "quiz.scored"
	RewardIssued        EventType = "reward.issued"
)

// Event is the envelope published for every domain event
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// DecodeData unmarshals the payload into dest
func (e *Event) DecodeData(dest interface{}) error {
	return json.Unmarshal(e.Data, dest)
}

type SubmissionFinalizedData struct {
	SubmissionID uint      `json:"submission_id"`
	AssessmentID uint      `json:"assessment_id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type QuizScoredData struct {
	SubmissionID uint   `json:"submission_id"`
	AssessmentID uint   `json:"assessment_id"`
	UserID       string `json:"user_id"`
	ScorePercent int    `json:"score_percent"`
	Passed       bool   `json:"passed"`
}

type RewardIssuedData struct {
	RewardID     uint   `json:"reward_id"`
	UserID       string `json:"user_id"`
	CategoryID   string `json:"category_id"`
	AssessmentID uint   `json:"assessment_id"`
	SubmissionID uint   `json:"submission_id"`
	Points       int    `json:"points"`
}
