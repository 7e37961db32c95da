package provider

import (
	"github.com/beanpass/internal/authz"
	"github.com/beanpass/internal/cache"
	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/metrics"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/queue"
	"github.com/beanpass/internal/repository"
	"github.com/beanpass/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.PrometheusObserver

	// Repositories
	UserRepo         repository.UserRepository
	SubscriptionRepo repository.SubscriptionRepository
	CafeRepo         repository.CafeRepository
	TokenRepo        repository.RedemptionTokenRepository
	OutboxRepo       repository.OutboxRepository
	AnalyticsRepo    repository.AnalyticsRepository
	LoginLogRepo     repository.UserLoginLogRepository

	// Services
	AuthzService        *authz.Service
	UserAuthService     *service.UserAuthService
	SubscriptionService *service.SubscriptionService
	CafeService         *service.CafeService
	QRCodeService       *service.QRCodeService
	RedemptionService   *service.RedemptionService
	AnalyticsService    *service.AnalyticsService
	RollupService       *service.RollupService
	OutboxRelay         *service.OutboxRelay
	LoginLogService     *service.UserLoginLogService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initMetrics()

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initMetrics() {
	if !c.Config.Metrics.Enabled {
		return
	}
	observer, err := metrics.NewPrometheusObserver(c.Config.Metrics.Namespace, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Warnw("provider_init_metrics_failed", "error", err)
		return
	}
	c.Metrics = observer
}

// Observer 返回业务指标采集器，未启用时为空实现
func (c *Container) Observer() metrics.Observer {
	if c == nil || c.Metrics == nil {
		return metrics.Nop()
	}
	return c.Metrics
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.SubscriptionRepo = repository.NewSubscriptionRepository(db)
	c.CafeRepo = repository.NewCafeRepository(db)
	c.TokenRepo = repository.NewRedemptionTokenRepository(db)
	c.OutboxRepo = repository.NewOutboxRepository(db)
	c.AnalyticsRepo = repository.NewAnalyticsRepository(db)
	c.LoginLogRepo = repository.NewUserLoginLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	observer := c.Observer()
	loc := c.Config.Analytics.Location()

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.LoginLogService = service.NewUserLoginLogService(c.LoginLogRepo)
	c.SubscriptionService = service.NewSubscriptionService(c.SubscriptionRepo, c.UserRepo, loc)
	c.CafeService = service.NewCafeService(c.CafeRepo)
	c.QRCodeService = service.NewQRCodeService(c.Config.QR, c.UserRepo, c.SubscriptionRepo, c.CafeRepo, c.TokenRepo, observer, loc)
	c.RedemptionService = service.NewRedemptionService(c.CafeRepo, c.TokenRepo, c.SubscriptionRepo, c.UserRepo, c.OutboxRepo, observer, loc)
	c.AnalyticsService = service.NewAnalyticsService(c.Config.Analytics, c.TokenRepo, c.CafeRepo, c.AnalyticsRepo, observer)
	c.RollupService = service.NewRollupService(c.Config.Analytics, c.UserRepo, c.CafeRepo, c.AnalyticsRepo, c.SubscriptionService, observer)
	c.OutboxRelay = service.NewOutboxRelay(c.Config.Analytics.Outbox, c.OutboxRepo, c.eventPublisher(), observer)
}

// eventPublisher 队列启用时经 asynq 投递，否则在当前进程直接聚合
func (c *Container) eventPublisher() service.EventPublisher {
	if c.QueueClient.Enabled() {
		return c.QueueClient
	}
	return service.NewDirectPublisher(c.AnalyticsService)
}
