package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

var userAssessmentConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}, {Name: "assessment_id"}},
	DoNothing: true,
}

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// GetOrCreate relies on the (user_id, assessment_id) unique index so concurrent callers converge on one row
func (s *SubmissionPostgreSQL) GetOrCreate(ctx context.Context, tx *gorm.DB, submission *models.Submission) (*models.Submission, bool, error) {
	db := s.getDB(tx)

	result := db.WithContext(ctx).Clauses(userAssessmentConflict).Create(submission)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create submission: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return submission, true, nil
	}

	stored, err := s.GetByUserAndAssessment(ctx, tx, submission.UserID, submission.AssessmentID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *SubmissionPostgreSQL) CreateSubmitted(ctx context.Context, tx *gorm.DB, submission *models.Submission) (bool, error) {
	db := s.getDB(tx)

	result := db.WithContext(ctx).Clauses(userAssessmentConflict).Create(submission)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create submission: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		First(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to get submission by user and assessment: %w", err)
	}
	return &submission, nil
}

// UpdatePosition only touches in progress rows
func (s *SubmissionPostgreSQL) UpdatePosition(ctx context.Context, tx *gorm.DB, id uint, questionOrder int) error {
	db := s.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND state = ?", id, models.SubmissionInProgress).
		Updates(map[string]interface{}{
			"current_question_order": questionOrder,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update submission position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, tx, id); err != nil {
			return err
		}
		return repositories.ErrNotInProgress
	}
	return nil
}

// MarkSubmitted is a guarded update; a second caller sees transitioned == false
func (s *SubmissionPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, lastQuestionOrder *int) (bool, error) {
	db := s.getDB(tx)

	updates := map[string]interface{}{
		"state":        models.SubmissionSubmitted,
		"submitted_at": submittedAt,
		"updated_at":   submittedAt,
	}
	if lastQuestionOrder != nil {
		updates["current_question_order"] = *lastQuestionOrder
	}

	result := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND state = ?", id, models.SubmissionInProgress).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark submission submitted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, repositories.ErrNotFound
			}
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *SubmissionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Submission{}).Where("user_id = ?", userID)
	return s.list(query, filters)
}

func (s *SubmissionPostgreSQL) list(query *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query = s.helpers.ApplySubmissionFilters(query, "", filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = s.helpers.ApplyPaginationAndSort(query, submissionSortColumns, "", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var submissions []*models.Submission
	if err := query.Preload("Assessment").Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}
