package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market_backend/internal/feature/prediction/domain/entity"
)

// ModelUsecase is the method set this decorator wraps.
type ModelUsecase interface {
	TrainGroup(ctx context.Context, userID uint, username string, groupID uint) ([]entity.TrainedItem, error)
	PredictItem(ctx context.Context, userID uint, username string, groupID, itemID uint, start, end time.Time) (*entity.PredictionResult, error)
	GetGroupModels(ctx context.Context, userID, groupID uint) (*entity.GroupModels, error)
	DeleteGroupModels(ctx context.Context, userID, groupID uint) error
}

// CachingModelUsecase decorates a ModelUsecase with Redis caching of the
// model listing. Training and deletion invalidate the cached listing.
// Presigned URLs expire, so the TTL must stay well below the presign expiry.
// A nil Redis client disables caching transparently.
type CachingModelUsecase struct {
	inner ModelUsecase
	rdb   *redis.Client
	ttl   time.Duration
}

var _ ModelUsecase = (*CachingModelUsecase)(nil)

// NewCachingModelUsecase decorates a ModelUsecase with Redis caching.
// If ttl is 0, it defaults to 5 minutes.
func NewCachingModelUsecase(rdb *redis.Client, ttl time.Duration, inner ModelUsecase) *CachingModelUsecase {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingModelUsecase{inner: inner, rdb: rdb, ttl: ttl}
}

func groupModelsKey(userID, groupID uint) string {
	return fmt.Sprintf("models:%d:%d", userID, groupID)
}

// TrainGroup trains models and invalidates the group's cached model listing.
func (c *CachingModelUsecase) TrainGroup(ctx context.Context, userID uint, username string, groupID uint) ([]entity.TrainedItem, error) {
	results, err := c.inner.TrainGroup(ctx, userID, username, groupID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, groupModelsKey(userID, groupID))
	return results, nil
}

// PredictItem passes through; prediction output depends on the requested
// time range and is not cached.
func (c *CachingModelUsecase) PredictItem(ctx context.Context, userID uint, username string, groupID, itemID uint, start, end time.Time) (*entity.PredictionResult, error) {
	return c.inner.PredictItem(ctx, userID, username, groupID, itemID, start, end)
}

// GetGroupModels lists a group's models, checking the cache first.
func (c *CachingModelUsecase) GetGroupModels(ctx context.Context, userID, groupID uint) (*entity.GroupModels, error) {
	key := groupModelsKey(userID, groupID)
	var cached entity.GroupModels
	if c.readCache(ctx, key, &cached) {
		return &cached, nil
	}
	models, err := c.inner.GetGroupModels(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, models)
	return models, nil
}

// DeleteGroupModels deletes models and invalidates the cached listing.
func (c *CachingModelUsecase) DeleteGroupModels(ctx context.Context, userID, groupID uint) error {
	if err := c.inner.DeleteGroupModels(ctx, userID, groupID); err != nil {
		return err
	}
	c.invalidate(ctx, groupModelsKey(userID, groupID))
	return nil
}

func (c *CachingModelUsecase) readCache(ctx context.Context, key string, out any) bool {
	if c.rdb == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CachingModelUsecase) writeCache(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}

func (c *CachingModelUsecase) invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
