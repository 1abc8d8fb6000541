package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market_backend/internal/feature/groups/domain/entity"
	"market_backend/internal/feature/groups/usecase"
)

// CachingGroupRepository decorates a GroupRepository with Redis caching.
// Reads go through the cache; every mutation invalidates the affected keys.
// A nil Redis client disables caching transparently.
type CachingGroupRepository struct {
	inner usecase.GroupRepository
	rdb   *redis.Client
	ttl   time.Duration
}

var _ usecase.GroupRepository = (*CachingGroupRepository)(nil)

// NewCachingGroupRepository decorates a GroupRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes.
func NewCachingGroupRepository(rdb *redis.Client, ttl time.Duration, inner usecase.GroupRepository) *CachingGroupRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingGroupRepository{inner: inner, rdb: rdb, ttl: ttl}
}

const allGroupsKey = "groups:all"

func groupCacheKey(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}

func itemsCacheKey(groupID, userID uint) string {
	return fmt.Sprintf("group:%d:items:%d", groupID, userID)
}

// CreateGroup creates the group and invalidates the group listing.
func (c *CachingGroupRepository) CreateGroup(ctx context.Context, g *entity.Group) error {
	if err := c.inner.CreateGroup(ctx, g); err != nil {
		return err
	}
	c.invalidate(ctx, allGroupsKey)
	return nil
}

// RenameGroup renames the group and invalidates its cache entries.
func (c *CachingGroupRepository) RenameGroup(ctx context.Context, userID, groupID uint, title string) (bool, error) {
	renamed, err := c.inner.RenameGroup(ctx, userID, groupID, title)
	if renamed {
		c.invalidate(ctx, allGroupsKey, groupCacheKey(groupID))
	}
	return renamed, err
}

// DeleteGroup deletes the group and invalidates all related cache entries.
func (c *CachingGroupRepository) DeleteGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	deleted, err := c.inner.DeleteGroup(ctx, userID, groupID)
	if deleted {
		c.invalidate(ctx, allGroupsKey, groupCacheKey(groupID), itemsCacheKey(groupID, userID))
	}
	return deleted, err
}

// ListGroups lists groups, checking the cache first.
func (c *CachingGroupRepository) ListGroups(ctx context.Context) ([]entity.Group, error) {
	var cached []entity.Group
	if c.readCache(ctx, allGroupsKey, &cached) {
		return cached, nil
	}
	groups, err := c.inner.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, allGroupsKey, groups)
	return groups, nil
}

// GetGroup fetches one group, checking the cache first.
func (c *CachingGroupRepository) GetGroup(ctx context.Context, groupID uint) (*entity.Group, error) {
	key := groupCacheKey(groupID)
	var cached entity.Group
	if c.readCache(ctx, key, &cached) {
		return &cached, nil
	}
	group, err := c.inner.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, group)
	return group, nil
}

// AddItem adds the item and invalidates the group's item listing.
func (c *CachingGroupRepository) AddItem(ctx context.Context, userID uint, item *entity.Item) (bool, error) {
	added, err := c.inner.AddItem(ctx, userID, item)
	if added {
		c.invalidate(ctx, itemsCacheKey(item.GroupID, userID))
	}
	return added, err
}

// RemoveItem removes the item and invalidates the group's item listing.
func (c *CachingGroupRepository) RemoveItem(ctx context.Context, userID, groupID uint, itemName string) (bool, error) {
	removed, err := c.inner.RemoveItem(ctx, userID, groupID, itemName)
	if removed {
		c.invalidate(ctx, itemsCacheKey(groupID, userID))
	}
	return removed, err
}

// ListItems lists a group's items, checking the cache first.
func (c *CachingGroupRepository) ListItems(ctx context.Context, userID, groupID uint) ([]entity.Item, error) {
	key := itemsCacheKey(groupID, userID)
	var cached []entity.Item
	if c.readCache(ctx, key, &cached) {
		return cached, nil
	}
	items, err := c.inner.ListItems(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, items)
	return items, nil
}

// readCache loads a cached value into out, reporting whether it was usable.
func (c *CachingGroupRepository) readCache(ctx context.Context, key string, out any) bool {
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

// writeCache stores a value in the cache (best effort).
func (c *CachingGroupRepository) writeCache(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}

// invalidate removes cache keys (best effort).
func (c *CachingGroupRepository) invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
