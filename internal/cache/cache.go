package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"vaporscope-backend/configs"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

// CacheManager fronts the summary table with Redis plus an in-process
// fallback. It is an accelerator only; the database row stays canonical.
type CacheManager struct {
	redisClient *redis.Client
	localCache  *cache.Cache
	ctx         context.Context
	mu          sync.RWMutex
}

var (
	instance *CacheManager
	once     sync.Once
)

func GetCacheManager() *CacheManager {
	once.Do(func() {
		instance = &CacheManager{
			ctx:        context.Background(),
			localCache: cache.New(5*time.Minute, 10*time.Minute),
		}
		instance.initialize()
	})
	return instance
}

func (cm *CacheManager) initialize() {
	opts, err := redis.ParseURL(configs.AppConfig.RedisURL)
	if err != nil {
		opts = &redis.Options{
			Addr:     configs.AppConfig.RedisURL,
			Password: "",
			DB:       0,
		}
	}

	cm.redisClient = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
	defer cancel()

	if err := cm.redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, using local cache only: %v", err)
		cm.redisClient = nil
	} else {
		log.Println("Redis connection established successfully")
	}
}

func (cm *CacheManager) Set(key string, value interface{}, ttl time.Duration) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Store in local cache
	cm.localCache.Set(key, value, ttl)

	// Store in Redis if available
	if cm.redisClient != nil {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()

		return cm.redisClient.Set(ctx, key, data, ttl).Err()
	}

	return nil
}

func (cm *CacheManager) Get(key string, target interface{}) (bool, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	// Try local cache first
	if val, found := cm.localCache.Get(key); found {
		if raw, ok := val.([]byte); ok {
			return true, json.Unmarshal(raw, target)
		}
		data, err := json.Marshal(val)
		if err != nil {
			return false, err
		}
		return true, json.Unmarshal(data, target)
	}

	// Try Redis if available
	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()

		data, err := cm.redisClient.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		} else if err != nil {
			return false, err
		}

		// Store in local cache for faster subsequent access
		cm.localCache.Set(key, data, 5*time.Minute)

		return true, json.Unmarshal(data, target)
	}

	return false, nil
}

func (cm *CacheManager) IsAvailable() bool {
	return cm.redisClient != nil
}
