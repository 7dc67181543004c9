package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

const answerBatchSize = 100

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

// Upsert replaces the value of an existing answer for the same (user, assessment, question)
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	db := ar.getDB(tx)

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "assessment_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"submission_id", "kind", "rating_value", "text_value", "option_index", "is_correct", "updated_at",
		}),
	}).Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (ar *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	db := ar.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(answers, answerBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create answers: %w", err)
	}
	return nil
}

func (ar *AnswerPostgreSQL) GetByQuestion(ctx context.Context, tx *gorm.DB, userID string, assessmentID, questionID uint) (*models.Answer, error) {
	db := ar.getDB(tx)
	var answer models.Answer
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ? AND question_id = ?", userID, assessmentID, questionID).
		First(&answer).Error; err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return &answer, nil
}

func (ar *AnswerPostgreSQL) ListByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) ([]*models.Answer, error) {
	db := ar.getDB(tx)
	var answers []*models.Answer
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}
