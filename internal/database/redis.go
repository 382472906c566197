package database

import (
	"sync"

	"cropcare/pkg/config"
	"cropcare/pkg/ratelimit"
)

var (
	rateLimitStoreInstance *ratelimit.RedisStore
	rateLimitStoreOnce     sync.Once
)

// GetRateLimitStore 获取限流计数存储的单例实例
func GetRateLimitStore() *ratelimit.RedisStore {
	rateLimitStoreOnce.Do(func() {
		cfg := config.GetConfig()
		rateLimitStoreInstance = ratelimit.NewRedisStore(&ratelimit.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return rateLimitStoreInstance
}

// CloseRateLimitStore 关闭Redis连接
func CloseRateLimitStore() error {
	if rateLimitStoreInstance != nil {
		return rateLimitStoreInstance.Close()
	}
	return nil
}
