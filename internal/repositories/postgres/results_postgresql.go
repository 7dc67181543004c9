package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type resultsRepository struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultsRepository(db *gorm.DB) repositories.ResultsRepository {
	return &resultsRepository{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

// SubmissionSummaries lists the submissions of an assessment with answer counts and reward status
func (r *resultsRepository) SubmissionSummaries(ctx context.Context, assessmentID uint, rewardCategoryID string, filters repositories.SubmissionFilters) ([]models.SubmissionSummary, int64, error) {
	base := r.db.WithContext(ctx).
		Table("submissions AS s").
		Where("s.assessment_id = ?", assessmentID)
	base = r.helpers.ApplySubmissionFilters(base, "s.", filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submission summaries: %w", err)
	}

	query := base.
		Select("s.id AS submission_id, s.assessment_id, s.user_id, s.state, s.started_at, s.submitted_at, s.score_percent, "+
			"(SELECT COUNT(*) FROM answers a WHERE a.submission_id = s.id) AS answer_count, "+
			"r.id IS NOT NULL AS reward_issued, r.created_at AS reward_created").
		Joins("LEFT JOIN reward_activities r ON r.user_id = s.user_id AND r.assessment_id = s.assessment_id AND r.category_id = ?", rewardCategoryID)
	query = r.helpers.ApplyPaginationAndSort(query, submissionSortColumns, "s.", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var rows []models.SubmissionSummary
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get submission summaries: %w", err)
	}

	return rows, total, nil
}
