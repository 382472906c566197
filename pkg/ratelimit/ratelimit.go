package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store 固定窗口计数存储
type Store interface {
	// Incr 计数加一并返回当前值，首次计数时设置窗口过期时间
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// RedisStore 基于 INCR + EXPIRE 的计数存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建Redis计数存储
func NewRedisStore(config *Config) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{client: client}
}

// Ping 测试Redis连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count, nil
}

// Close 关闭Redis连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// 每隔多少次计数清扫一次过期条目
const sweepEvery = 256

// MemoryStore 进程内计数，Redis 不可用或测试时使用
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
	ops     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ops++
	if s.ops%sweepEvery == 0 {
		s.sweep(now)
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &memoryEntry{resetAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// 删除已过期的窗口，调用方持有锁
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
		}
	}
}

// Len 当前保存的计数条目数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }

// Limiter 固定窗口限流器
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// Result 单次判定结果
type Result struct {
	Allowed   bool
	Remaining int64
}

// DefaultWindow 窗口未配置或非法时使用
const DefaultWindow = time.Minute

// NewLimiter 创建限流器，limit 为窗口内允许的请求数，window 不大于 0 时使用 DefaultWindow
func NewLimiter(store Store, prefix string, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if prefix == "" {
		prefix = "cropcare:ratelimit"
	}
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow 记录一次请求并判断是否超限
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, err := l.store.Incr(ctx, l.key(key), l.window)
	if err != nil {
		return Result{}, err
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= l.limit, Remaining: remaining}, nil
}

// Window 窗口长度
func (l *Limiter) Window() time.Duration {
	return l.window
}

// 按窗口起点分桶，窗口切换后自动使用新键
func (l *Limiter) key(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
}
