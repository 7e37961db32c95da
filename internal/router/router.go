package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/beanpass/internal/cache"
	"github.com/beanpass/internal/config"
	partnerhandlers "github.com/beanpass/internal/http/handlers/partner"
	publichandlers "github.com/beanpass/internal/http/handlers/public"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/provider"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按顾客/合作方分组）
	publicHandler := publichandlers.New(c)
	partnerHandler := partnerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bp"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "Too many login attempts, retry in %d seconds",
	}
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		Message:       "Too many redemption attempts, retry in %d seconds",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", healthHandler)
	if cfg.Metrics.Enabled && c.Metrics != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/plans", publicHandler.ListPlans)
			public.GET("/cafes", publicHandler.ListCafes)
			public.GET("/cafes/:id", publicHandler.GetCafe)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 登录用户接口（需鉴权 + 角色授权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserAuthService))
		user.Use(RoleRBACMiddleware(c.AuthzService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/me/login-logs", publicHandler.ListLoginLogs)

			// 顾客
			user.GET("/subscriptions", publicHandler.ListSubscriptions)
			user.GET("/subscriptions/active", publicHandler.GetActiveSubscription)
			user.POST("/subscriptions", publicHandler.Subscribe)
			user.POST("/subscriptions/:id/cancel", publicHandler.CancelSubscription)
			user.POST("/qr/issue", publicHandler.IssueQRCode)
			user.GET("/qr/tokens", publicHandler.ListQRTokens)

			// 合作方
			partner := user.Group("/partner")
			{
				partner.GET("/cafes", partnerHandler.ListCafes)
				partner.POST("/cafes", partnerHandler.CreateCafe)
				partner.PUT("/cafes/:id", partnerHandler.UpdateCafe)
				partner.POST("/cafes/:id/products", partnerHandler.AddProduct)
				partner.POST("/qr/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByUserID), partnerHandler.RedeemQRCode)
				partner.GET("/analytics/daily", partnerHandler.GetDailyAnalytics)
				partner.GET("/analytics/monthly", partnerHandler.GetMonthlyAnalytics)
				partner.GET("/analytics/weekly", partnerHandler.GetWeeklyAnalytics)
			}
		}
	}

	return r
}

// healthHandler 探活：数据库必须可用，Redis 仅在启用时检查
func healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := gin.H{"database": "ok"}
	healthy := true
	if err := pingDatabase(ctx); err != nil {
		logger.Warnw("healthz_database_failed", "error", err)
		status["database"] = "unavailable"
		healthy = false
	}
	if cache.Enabled() {
		status["redis"] = "ok"
		if err := cache.Ping(ctx); err != nil {
			logger.Warnw("healthz_redis_failed", "error", err)
			status["redis"] = "unavailable"
			healthy = false
		}
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			StatusCode: response.CodeInternal,
			Msg:        "unhealthy",
			Data:       status,
		})
		return
	}
	response.Success(c, status)
}

func pingDatabase(ctx context.Context) error {
	if models.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
