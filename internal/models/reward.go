package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RewardActivity is a granted point award for a completed assessment
type RewardActivity struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_reward_activities_user_category_assessment,priority:1"`
	CategoryID   string         `json:"category_id" gorm:"not null;size:100;uniqueIndex:idx_reward_activities_user_category_assessment,priority:2"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;uniqueIndex:idx_reward_activities_user_category_assessment,priority:3"`
	SubmissionID uint           `json:"submission_id" gorm:"not null"`
	Points       int            `json:"points" gorm:"not null;default:0"`
	Metadata     datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (RewardActivity) TableName() string {
	return "reward_activities"
}

type RewardMetadata struct {
	AssessmentID    uint   `json:"assessment_id"`
	SubmissionID    uint   `json:"submission_id"`
	AssessmentTitle string `json:"assessment_title"`
	ScorePercent    *int   `json:"score_percent,omitempty"`
}

func (m RewardMetadata) JSON() (datatypes.JSON, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// RewardStatus is the client visible result of a reward issuance attempt
type RewardStatus string

const (
	RewardIssued        RewardStatus = "issued"
	RewardAlreadyIssued RewardStatus = "already_issued"
	RewardNotEligible   RewardStatus = "not_eligible"
	RewardPending       RewardStatus = "pending"
)
