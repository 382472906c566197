package services

import (
	"context"
	"fmt"
	"time"

	"cropcare/pkg/logger"
	"cropcare/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// CodeStatsReporter 定时刷新邀请码状态指标
type CodeStatsReporter struct {
	invitations *InvitationService
	cron        *cron.Cron
	spec        string
	running     bool
}

// NewCodeStatsReporter spec 为 cron 表达式，如 "@every 1m"
func NewCodeStatsReporter(invitations *InvitationService, spec string) *CodeStatsReporter {
	return &CodeStatsReporter{
		invitations: invitations,
		cron:        cron.New(),
		spec:        spec,
	}
}

// Start 启动调度器
func (r *CodeStatsReporter) Start() error {
	if r.running {
		return fmt.Errorf("code stats reporter already running")
	}
	if _, err := r.cron.AddFunc(r.spec, func() {
		if err := r.Refresh(context.Background()); err != nil {
			logger.GetLogger().Errorf("刷新邀请码统计失败: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", r.spec, err)
	}

	r.cron.Start()
	r.running = true
	logger.GetLogger().Infof("邀请码统计任务已启动，周期: %s", r.spec)
	return nil
}

// Stop 停止调度器
func (r *CodeStatsReporter) Stop() {
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}

// Refresh 立即刷新一次
func (r *CodeStatsReporter) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	counts, err := r.invitations.CodeStateCounts(ctx)
	if err != nil {
		return err
	}
	metrics.SetCodeStates(counts)
	return nil
}
