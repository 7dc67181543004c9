package postgres

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/cache"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type RewardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRewardPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.RewardRepository {
	return &RewardPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *RewardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreateIfAbsent inserts at most one reward per (user, category, assessment)
func (r *RewardPostgreSQL) CreateIfAbsent(ctx context.Context, tx *gorm.DB, reward *models.RewardActivity) (bool, error) {
	db := r.getDB(tx)

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}, {Name: "assessment_id"}},
		DoNothing: true,
	}).Create(reward)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create reward activity: %w", result.Error)
	}

	r.rememberExisting(ctx, reward.UserID, reward.CategoryID, reward.AssessmentID)
	return result.RowsAffected == 1, nil
}

// Exists also matches rows that only carry the assessment id in their metadata
func (r *RewardPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (bool, error) {
	key := cache.RewardKey(userID, categoryID, assessmentID)

	if cached, err := r.cacheManager.Reward.Exists(ctx, key); err == nil && cached {
		return true, nil
	}

	db := r.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.RewardActivity{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Where("assessment_id = ? OR metadata->>'assessment_id' = ?", assessmentID, strconv.FormatUint(uint64(assessmentID), 10)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check reward existence: %w", err)
	}

	if count > 0 {
		r.rememberExisting(ctx, userID, categoryID, assessmentID)
		return true, nil
	}
	return false, nil
}

func (r *RewardPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (*models.RewardActivity, error) {
	db := r.getDB(tx)
	var reward models.RewardActivity
	if err := db.WithContext(ctx).
		Where("user_id = ? AND category_id = ? AND assessment_id = ?", userID, categoryID, assessmentID).
		First(&reward).Error; err != nil {
		return nil, fmt.Errorf("failed to get reward activity: %w", err)
	}
	return &reward, nil
}

func (r *RewardPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.RewardFilters) ([]*models.RewardActivity, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Model(&models.RewardActivity{}).Where("user_id = ?", userID)
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reward activities: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var rewards []*models.RewardActivity
	if err := query.Find(&rewards).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reward activities: %w", err)
	}
	return rewards, total, nil
}

// rememberExisting caches positive lookups only
func (r *RewardPostgreSQL) rememberExisting(ctx context.Context, userID, categoryID string, assessmentID uint) {
	cache.SafeSet(ctx, r.cacheManager.Reward, cache.RewardKey(userID, categoryID, assessmentID), true, cache.RewardExistsCacheConfig.TTL)
}
