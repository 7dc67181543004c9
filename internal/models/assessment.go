package models

import (
	"time"
)

type AssessmentKind string

const (
	KindQuestionnaire AssessmentKind = "questionnaire"
	KindQuiz          AssessmentKind = "quiz"
)

type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "draft"
	StatusPublished AssessmentStatus = "published"
	StatusArchived  AssessmentStatus = "archived"
)

type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Title       string           `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string          `json:"description,omitempty" gorm:"type:text" validate:"omitempty,max=1000"`
	Kind        AssessmentKind   `json:"kind" gorm:"not null;size:32" validate:"required,assessment_kind"`
	PointValue  int              `json:"point_value" gorm:"not null;default:0" validate:"min=0"`
	Status      AssessmentStatus `json:"status" gorm:"default:draft;index;size:32" validate:"omitempty,oneof=draft published archived"`

	// Publish window, quizzes only. A nil bound leaves that side open.
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`

	CreatedBy *string   `json:"created_by,omitempty" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) IsQuiz() bool {
	return a.Kind == KindQuiz
}

func (a *Assessment) IsQuestionnaire() bool {
	return a.Kind == KindQuestionnaire
}

func (a *Assessment) IsPublished() bool {
	return a.Status == StatusPublished
}

// IsAvailableAt reports whether t falls inside [AvailableFrom, AvailableUntil)
func (a *Assessment) IsAvailableAt(t time.Time) bool {
	if !a.IsPublished() {
		return false
	}
	if a.AvailableFrom != nil && t.Before(*a.AvailableFrom) {
		return false
	}
	if a.AvailableUntil != nil && !t.Before(*a.AvailableUntil) {
		return false
	}
	return true
}
