package service

import (
	"context"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/metrics"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultOutboxBatchSize = 100
	defaultOutboxClaimTTL  = 30 * time.Second
	defaultOutboxRetries   = 5
	maxOutboxErrorLength   = 1000
)

// EventPublisher 发件箱事件投递接口
type EventPublisher interface {
	Publish(ctx context.Context, event models.AnalyticsOutbox) error
}

// DirectPublisher 不经过队列，直接在当前进程应用统计
type DirectPublisher struct {
	analytics *AnalyticsService
}

// NewDirectPublisher 创建直接投递器
func NewDirectPublisher(analytics *AnalyticsService) *DirectPublisher {
	return &DirectPublisher{analytics: analytics}
}

// Publish 直接调用统计聚合
func (p *DirectPublisher) Publish(ctx context.Context, event models.AnalyticsOutbox) error {
	if p == nil || p.analytics == nil {
		return ErrOutboxPublisherAbsent
	}
	return p.analytics.ApplyRedemption(ctx, event.TokenID)
}

// RelayStats 单轮投递结果
type RelayStats struct {
	Claimed      int
	Published    int
	Failed       int
	DeadLettered int
}

// OutboxRelay 发件箱转发器
type OutboxRelay struct {
	repo      repository.OutboxRepository
	publisher EventPublisher
	observer  metrics.Observer
	batchSize int
	claimTTL  time.Duration
	maxRetry  int
	now       func() time.Time
}

// NewOutboxRelay 创建发件箱转发器
func NewOutboxRelay(cfg config.OutboxConfig, repo repository.OutboxRepository, publisher EventPublisher, observer metrics.Observer) *OutboxRelay {
	relay := &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		observer:  observerOrNop(observer),
		batchSize: cfg.BatchSize,
		claimTTL:  time.Duration(cfg.ClaimTTLSeconds) * time.Second,
		maxRetry:  cfg.MaxRetries,
		now:       time.Now,
	}
	if relay.batchSize <= 0 {
		relay.batchSize = defaultOutboxBatchSize
	}
	if relay.claimTTL <= 0 {
		relay.claimTTL = defaultOutboxClaimTTL
	}
	if relay.maxRetry <= 0 {
		relay.maxRetry = defaultOutboxRetries
	}
	return relay
}

// RunOnce 认领一批待投递事件并逐条投递；投递失败只影响统计，不回滚核销
func (r *OutboxRelay) RunOnce(ctx context.Context) (RelayStats, error) {
	var stats RelayStats
	if r.publisher == nil {
		return stats, ErrOutboxPublisherAbsent
	}
	now := r.now()
	claimToken := uuid.NewString()
	events, err := r.repo.ClaimUnpublished(ctx, r.batchSize, claimToken, now.Add(r.claimTTL), now)
	if err != nil {
		logger.Errorw("outbox_claim_failed", "error", err)
		return stats, err
	}
	stats.Claimed = len(events)

	for _, event := range events {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		pubErr := r.publisher.Publish(ctx, event)
		at := r.now()
		if pubErr == nil {
			if err := r.repo.MarkPublished(ctx, event.ID, claimToken, at); err != nil {
				logger.Errorw("outbox_mark_published_failed", "event_id", event.EventID, "error", err)
			}
			stats.Published++
			r.observer.RecordOutboxPublish(metrics.OutcomeSuccess)
			continue
		}

		msg := truncateError(pubErr.Error())
		if event.RetryCount+1 >= r.maxRetry {
			if err := r.repo.MarkDeadLettered(ctx, event.ID, claimToken, msg, at); err != nil {
				logger.Errorw("outbox_mark_dead_letter_failed", "event_id", event.EventID, "error", err)
			}
			stats.DeadLettered++
			r.observer.RecordOutboxPublish(metrics.OutcomeDeadLetter)
			logger.Errorw("outbox_event_dead_lettered",
				"event_id", event.EventID,
				"token_id", event.TokenID,
				"retry_count", event.RetryCount+1,
				"error", pubErr,
			)
			continue
		}
		if err := r.repo.MarkFailed(ctx, event.ID, claimToken, msg, at); err != nil {
			logger.Errorw("outbox_mark_failed_failed", "event_id", event.EventID, "error", err)
		}
		stats.Failed++
		r.observer.RecordOutboxPublish(metrics.OutcomeError)
		logger.Warnw("outbox_publish_failed",
			"event_id", event.EventID,
			"token_id", event.TokenID,
			"retry_count", event.RetryCount+1,
			"error", pubErr,
		)
	}
	if stats.Claimed > 0 {
		logger.Debugw("outbox_relay_round_done",
			"claimed", stats.Claimed,
			"published", stats.Published,
			"failed", stats.Failed,
			"dead_lettered", stats.DeadLettered,
		)
	}
	return stats, nil
}

// Counts 发件箱各状态数量
func (r *OutboxRelay) Counts(ctx context.Context) (map[string]int64, error) {
	return r.repo.CountByStatus(ctx)
}

func truncateError(msg string) string {
	if len(msg) <= maxOutboxErrorLength {
		return msg
	}
	return msg[:maxOutboxErrorLength]
}
