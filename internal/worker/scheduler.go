package worker

import (
	"context"
	"strings"
	"time"

	"github.com/beanpass/internal/cache"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/service"

	"github.com/robfig/cron/v3"
)

const (
	defaultDailyCron = "0 0 * * *"
	rollupLockTTL    = 25 * time.Hour
	rollupLockPrefix = "lock:rollup:"
)

// DailyRunner 日终任务接口
type DailyRunner interface {
	RunDaily(ctx context.Context, now time.Time) (*service.RollupReport, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner DailyRunner
	loc    *time.Location
	now    func() time.Time
}

// NewScheduler 创建调度器，任务仍在运行时跳过下一次触发
func NewScheduler(spec string, loc *time.Location, runner DailyRunner) *Scheduler {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = defaultDailyCron
	}
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{cron: c, spec: spec, runner: runner, loc: loc, now: time.Now}
}

// Start 注册并启动日终任务
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runDaily(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infow("scheduler_started", "daily_cron", s.spec, "timezone", s.loc.String())
	return nil
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// runDaily 多实例部署时按日期加锁，成功执行后锁保留到过期，同一天只执行一次
func (s *Scheduler) runDaily(ctx context.Context) {
	log := logger.Component("scheduler")
	now := s.now()
	day := now.In(s.loc).Format(constants.DateLayout)

	lock, acquired, err := cache.TryLock(ctx, rollupLockPrefix+day, rollupLockTTL)
	if err != nil {
		log.Warnw("rollup_lock_failed", "date", day, "error", err)
		return
	}
	if !acquired {
		log.Infow("rollup_skip_locked", "date", day)
		return
	}

	if _, err := s.runner.RunDaily(ctx, now); err != nil {
		log.Errorw("rollup_run_failed", "date", day, "error", err)
		// 失败时释放，允许其他实例重试
		if err := lock.Release(context.Background()); err != nil {
			log.Warnw("rollup_lock_release_failed", "date", day, "error", err)
		}
	}
}
