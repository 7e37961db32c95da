package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/provider"
	"github.com/beanpass/internal/queue"
	"github.com/beanpass/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAnalyticsRedemption, c.handleAnalyticsRedemption)
}

func (c *Consumer) handleAnalyticsRedemption(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_analytics_redemption_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseAnalyticsRedemptionPayload(task)
	if err != nil {
		logger.Warnw("worker_analytics_redemption_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if c.AnalyticsService == nil {
		logger.Warnw("worker_analytics_redemption_skip_service_nil", "token_id", payload.TokenID)
		return nil
	}
	err = c.AnalyticsService.ApplyRedemption(ctx, payload.TokenID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrQRCodeNotFound), errors.Is(err, service.ErrTokenNotConsumed):
		logger.Warnw("worker_analytics_redemption_skip_invalid_token",
			"event_id", payload.EventID,
			"token_id", payload.TokenID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	default:
		logger.Warnw("worker_analytics_redemption_failed",
			"event_id", payload.EventID,
			"token_id", payload.TokenID,
			"error", err,
		)
		return err
	}
}
