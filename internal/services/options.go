package services

import (
	"time"

	"cropcare/pkg/config"
)

// Options 服务层可调参数
type Options struct {
	CodeLength       int
	DefaultTTL       time.Duration // 邀请码默认有效期
	MinTTL           time.Duration // 邀请码过期时间的最小间隔
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		CodeLength:       8,
		DefaultTTL:       24 * time.Hour,
		MinTTL:           15 * time.Minute,
		LockTimeout:      5 * time.Second,
		StatementTimeout: 10 * time.Second,
	}
}

// OptionsFromConfig 从配置构造
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg.Invitation.CodeLength > 0 {
		opts.CodeLength = cfg.Invitation.CodeLength
	}
	if cfg.Invitation.DefaultTTL > 0 {
		opts.DefaultTTL = cfg.Invitation.DefaultTTL
	}
	if cfg.Invitation.MinTTL > 0 {
		opts.MinTTL = cfg.Invitation.MinTTL
	}
	opts.LockTimeout = cfg.Database.LockTimeout
	opts.StatementTimeout = cfg.Database.StatementTimeout
	return opts
}
