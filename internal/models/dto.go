package models

import (
	"time"
)

type ListSubmissionsParams struct {
	State    *SubmissionState `form:"state" validate:"omitempty,oneof=in_progress submitted"`
	Page     int              `form:"page" validate:"omitempty,min=1"`
	PageSize int              `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SubmissionSummary is one row of the admin results listing and export
type SubmissionSummary struct {
	SubmissionID  uint            `json:"submission_id"`
	AssessmentID  uint            `json:"assessment_id"`
	UserID        string          `json:"user_id"`
	State         SubmissionState `json:"state"`
	StartedAt     time.Time       `json:"started_at"`
	SubmittedAt   *time.Time      `json:"submitted_at"`
	ScorePercent  *int            `json:"score_percent"`
	AnswerCount   int64           `json:"answer_count"`
	RewardIssued  bool            `json:"reward_issued"`
	RewardCreated *time.Time      `json:"reward_created_at,omitempty"`
}
