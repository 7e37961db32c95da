package worker

import (
	"context"
	"errors"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/queue"
	"github.com/beanpass/internal/service"

	"github.com/hibiken/asynq"
)

const defaultRelayInterval = 2 * time.Second

// OutboxRunner 发件箱单轮投递接口
type OutboxRunner interface {
	RunOnce(ctx context.Context) (service.RelayStats, error)
}

// Service 后台服务：统计任务消费、发件箱转发、日终调度
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	relay     OutboxRunner
	interval  time.Duration
	scheduler *Scheduler
}

// NewService 创建后台服务；队列未启用时只运行发件箱转发与调度
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil || consumer.Container == nil {
		return nil, errors.New("consumer is nil")
	}
	svc := &Service{
		name:     "worker",
		consumer: consumer,
		relay:    consumer.OutboxRelay,
		interval: time.Duration(cfg.Analytics.Outbox.IntervalSeconds) * time.Second,
	}
	if svc.interval <= 0 {
		svc.interval = defaultRelayInterval
	}
	if consumer.RollupService != nil {
		svc.scheduler = NewScheduler(cfg.Analytics.DailyCron, cfg.Analytics.Location(), consumer.RollupService)
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		serverCfg.Logger = logger.S()
		svc.server = asynq.NewServer(opt, serverCfg)
		svc.mux = asynq.NewServeMux()
		consumer.Register(svc.mux)
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
	}
	if s.relay != nil {
		go s.runRelayLoop(ctx)
	}
	if s.server != nil {
		return s.server.Run(s.mux)
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.scheduler != nil {
		s.scheduler.Stop(ctx)
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) runRelayLoop(ctx context.Context) {
	runOnce := func() {
		if _, err := s.relay.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnw("worker_outbox_relay_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
