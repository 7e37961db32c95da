package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxRepository 统计事件发件箱数据访问接口
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *models.AnalyticsOutbox) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil, now time.Time) ([]models.AnalyticsOutbox, error)
	MarkPublished(ctx context.Context, id uint, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, id uint, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, id uint, claimToken, errMsg string, at time.Time) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	WithTx(tx *gorm.DB) *GormOutboxRepository
}

// GormOutboxRepository GORM 实现
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建发件箱仓库
func NewOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	if tx == nil {
		return r
	}
	return &GormOutboxRepository{db: tx}
}

// Enqueue 写入待投递事件
func (r *GormOutboxRepository) Enqueue(ctx context.Context, event *models.AnalyticsOutbox) error {
	if event == nil {
		return fmt.Errorf("outbox event is required")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ClaimUnpublished 认领一批未投递事件，认领过期的事件可被重新认领
func (r *GormOutboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil, now time.Time) ([]models.AnalyticsOutbox, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, fmt.Errorf("claim token is required")
	}

	var rows []models.AnalyticsOutbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&models.AnalyticsOutbox{}).
			Select("id").
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC, id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := tx.Model(&models.AnalyticsOutbox{}).
			Where("id IN (?)", subquery).
			Updates(map[string]interface{}{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return tx.Where("claim_token = ?", claimToken).
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Order("created_at ASC, id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPublished 标记投递成功
func (r *GormOutboxRepository) MarkPublished(ctx context.Context, id uint, claimToken string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AnalyticsOutbox{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"published_at": at,
			"claim_token":  nil,
			"claim_until":  nil,
		}).Error
}

// MarkFailed 记录投递失败并释放认领
func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id uint, claimToken, errMsg string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AnalyticsOutbox{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    errMsg,
			"last_error_at": at,
			"claim_token":   nil,
			"claim_until":   nil,
		}).Error
}

// MarkDeadLettered 超过重试上限后进入死信
func (r *GormOutboxRepository) MarkDeadLettered(ctx context.Context, id uint, claimToken, errMsg string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AnalyticsOutbox{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"retry_count":      gorm.Expr("retry_count + 1"),
			"last_error":       errMsg,
			"last_error_at":    at,
			"dead_lettered_at": at,
			"claim_token":      nil,
			"claim_until":      nil,
		}).Error
}

// CountByStatus 按状态统计事件数量
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	db := r.db.WithContext(ctx)
	result := make(map[string]int64, 3)
	var pending, published, dead int64
	if err := db.Model(&models.AnalyticsOutbox{}).
		Where("published_at IS NULL AND dead_lettered_at IS NULL").
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AnalyticsOutbox{}).
		Where("published_at IS NOT NULL").
		Count(&published).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AnalyticsOutbox{}).
		Where("dead_lettered_at IS NOT NULL").
		Count(&dead).Error; err != nil {
		return nil, err
	}
	result[constants.OutboxStatusPending] = pending
	result[constants.OutboxStatusPublished] = published
	result[constants.OutboxStatusDeadLettered] = dead
	return result, nil
}
