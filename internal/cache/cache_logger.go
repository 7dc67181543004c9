package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SafeSet stores a value and logs instead of failing
func SafeSet(ctx context.Context, helper *CacheHelper, key string, value interface{}, ttl time.Duration) {
	if err := helper.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "Failed to set cache key",
			"error", err,
			"key", helper.GetCacheKey(key))
	}
}

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func CatalogKey(assessmentID uint) string {
	return fmt.Sprintf("id:%d", assessmentID)
}

func RewardKey(userID, categoryID string, assessmentID uint) string {
	return fmt.Sprintf("%s:%s:%d", userID, categoryID, assessmentID)
}

// InvalidateCatalogCache drops the cached catalog and list pages of an assessment
func InvalidateCatalogCache(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Catalog, CatalogKey(assessmentID))
	SafeInvalidatePattern(ctx, cm.Catalog, "list:*")
}
