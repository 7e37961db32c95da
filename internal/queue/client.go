package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// AnalyticsQueue 统计队列名称
	AnalyticsQueue = constants.QueueAnalytics
)

// Client 队列客户端封装
type Client struct {
	client   *asynq.Client
	enabled  bool
	maxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:   client,
		enabled:  true,
		maxRetry: cfg.MaxRetry,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueRedemptionAnalytics 推送核销统计任务，同一事件只入队一次
func (c *Client) EnqueueRedemptionAnalytics(ctx context.Context, payload AnalyticsRedemptionPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAnalyticsRedemptionTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{asynq.Queue(AnalyticsQueue)}
	if c.maxRetry > 0 {
		options = append(options, asynq.MaxRetry(c.maxRetry))
	}
	if payload.EventID != "" {
		options = append(options, asynq.TaskID(payload.EventID))
	}
	options = append(options, opts...)
	_, err = c.client.EnqueueContext(ctx, task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Publish 将发件箱事件投递到统计队列
func (c *Client) Publish(ctx context.Context, event models.AnalyticsOutbox) error {
	if !c.Enabled() {
		return fmt.Errorf("queue is disabled")
	}
	return c.EnqueueRedemptionAnalytics(ctx, AnalyticsRedemptionPayload{
		EventID: event.EventID,
		TokenID: event.TokenID,
	})
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1, AnalyticsQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
