package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// defaultOperationTimeout is the timeout for individual Redis operations
	defaultOperationTimeout = 5 * time.Second

	opportunityTTL     = 1 * time.Hour
	opportunityListTTL = 5 * time.Minute
	tagPresetTTL       = 12 * time.Hour
)

type Cache struct {
	client  *redis.Client
	enabled bool
}

func NewCache(addr string, enable bool) (*Cache, error) {
	if !enable {
		return &Cache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:  client,
		enabled: true,
	}, nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// operationContext creates a context with timeout for Redis operations
func (c *Cache) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultOperationTimeout)
}

func (c *Cache) Set(key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, expiration).Err()
}

func (c *Cache) Get(key string, dest interface{}) error {
	if !c.enabled {
		return fmt.Errorf("cache disabled")
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("key not found")
	} else if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Delete(key string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.Del(ctx, key).Err()
}

func (c *Cache) DeletePattern(pattern string) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Increment(key string) (int64, error) {
	if !c.enabled {
		return 0, nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.Incr(ctx, key).Result()
}

func (c *Cache) FlushAll() error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.FlushAll(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) CacheOpportunity(id uint, opportunity interface{}) error {
	return c.Set(fmt.Sprintf("opportunity:%d", id), opportunity, opportunityTTL)
}

func (c *Cache) GetCachedOpportunity(id uint, dest interface{}) error {
	return c.Get(fmt.Sprintf("opportunity:%d", id), dest)
}

func (c *Cache) InvalidateOpportunity(id uint) error {
	if err := c.Delete(fmt.Sprintf("opportunity:%d", id)); err != nil {
		return err
	}
	return c.InvalidateOpportunityLists()
}

func (c *Cache) CacheOpportunityList(cacheKey string, opportunities interface{}) error {
	return c.Set(cacheKey, opportunities, opportunityListTTL)
}

func (c *Cache) GetCachedOpportunityList(cacheKey string, dest interface{}) error {
	return c.Get(cacheKey, dest)
}

func (c *Cache) InvalidateOpportunityLists() error {
	return c.DeletePattern("opportunities:*")
}

func (c *Cache) CacheTagPresets(tags interface{}) error {
	return c.Set("presets:tags", tags, tagPresetTTL)
}

func (c *Cache) GetCachedTagPresets(dest interface{}) error {
	return c.Get("presets:tags", dest)
}

func (c *Cache) InvalidateTagPresets() error {
	return c.Delete("presets:tags")
}

func (c *Cache) IncrementViews(opportunityID uint) (int64, error) {
	return c.Increment(fmt.Sprintf("views:%d", opportunityID))
}

// PendingViewIDs lists opportunity ids with buffered view counts.
func (c *Cache) PendingViewIDs() ([]uint, error) {
	if !c.enabled {
		return nil, nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	var ids []uint
	iter := c.client.Scan(ctx, 0, "views:*", 0).Iterator()
	for iter.Next(ctx) {
		var id uint
		if _, err := fmt.Sscanf(iter.Val(), "views:%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, iter.Err()
}

// ConsumeViews atomically reads and clears the buffered view count.
// Increments arriving after the GETDEL land on a fresh key and survive
// for the next flush.
func (c *Cache) ConsumeViews(opportunityID uint) (int64, error) {
	if !c.enabled {
		return 0, nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	val, err := c.client.GetDel(ctx, fmt.Sprintf("views:%d", opportunityID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// RestoreViews re-buffers a consumed count after a failed database write.
func (c *Cache) RestoreViews(opportunityID uint, count int64) error {
	if !c.enabled || count == 0 {
		return nil
	}

	ctx, cancel := c.operationContext()
	defer cancel()

	return c.client.IncrBy(ctx, fmt.Sprintf("views:%d", opportunityID), count).Err()
}
