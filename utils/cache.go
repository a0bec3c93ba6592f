package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mediavault/internal/repo"
	"mediavault/model"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

// Get reads a cached value.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Set writes a cached value.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), expiration).Err()
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists checks whether a cache key exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type CacheManager struct {
	cache Cache
}

var globalCacheManager *CacheManager
var cacheManagerOnce sync.Once

// InitCacheManager initializes the cache manager.
func InitCacheManager() {
	cacheManagerOnce.Do(func() {
		globalCacheManager = &CacheManager{
			cache: NewRedisCache(repo.Redis),
		}
	})
}

// GetCacheManager returns the cache manager.
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		InitCacheManager()
	}
	return globalCacheManager
}

// BuildCacheKey builds a cache key.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

const (
	CacheKeyObject     = "cdn:object"
	CacheKeyObjectName = "cdn:object:name"
)

// GetObjectFromCache reads cached object metadata.
func GetObjectFromCache(ctx context.Context, objectId uint64) (*model.Object, bool) {
	if repo.Redis == nil {
		return nil, false
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObject, objectId)

	var result model.Object
	if err := manager.cache.Get(ctx, key, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// SetObjectToCache writes cached object metadata.
func SetObjectToCache(ctx context.Context, objectId uint64, data *model.Object, expiration time.Duration) error {
	if repo.Redis == nil {
		return nil
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObject, objectId)
	return manager.cache.Set(ctx, key, data, expiration)
}

// InvalidateObjectCache clears cached object metadata.
func InvalidateObjectCache(ctx context.Context, objectId uint64) error {
	if repo.Redis == nil {
		return nil
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObject, objectId)
	return manager.cache.Delete(ctx, key)
}

// GetObjectIDByName reads a cached object id by bucket and storage
// filename.
func GetObjectIDByName(ctx context.Context, bucket, filename string) (uint64, bool) {
	if repo.Redis == nil {
		return 0, false
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObjectName, bucket, filename)

	var result uint64
	if err := manager.cache.Get(ctx, key, &result); err != nil {
		return 0, false
	}
	if result == 0 {
		return 0, false
	}
	return result, true
}

// SetObjectIDByName writes a cached object id by bucket and storage
// filename.
func SetObjectIDByName(ctx context.Context, bucket, filename string, objectId uint64, expiration time.Duration) error {
	if repo.Redis == nil {
		return nil
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObjectName, bucket, filename)
	return manager.cache.Set(ctx, key, objectId, expiration)
}

// InvalidateObjectNameCache clears a cached object id by bucket and
// storage filename.
func InvalidateObjectNameCache(ctx context.Context, bucket, filename string) error {
	if repo.Redis == nil {
		return nil
	}
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyObjectName, bucket, filename)
	return manager.cache.Delete(ctx, key)
}
