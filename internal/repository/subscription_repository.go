package repository

import (
	"errors"
	"time"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository 套餐与用户订阅数据访问接口
type SubscriptionRepository interface {
	ListPlans(onlyActive bool) ([]models.SubscriptionPlan, error)
	GetPlanByID(id uint) (*models.SubscriptionPlan, error)
	Create(sub *models.UserSubscription) error
	GetByID(id uint) (*models.UserSubscription, error)
	GetByIDForUpdate(id uint) (*models.UserSubscription, error)
	GetActiveByUser(userID uint) (*models.UserSubscription, error)
	ListByUser(userID uint) ([]models.UserSubscription, error)
	CancelActiveByUser(userID uint, at time.Time) (int64, error)
	Cancel(id uint, at time.Time) (int64, error)
	ConsumeCredit(id uint, day string, usedToday int) (int64, error)
	ExpireOverdue(now time.Time) ([]models.UserSubscription, error)
	WithTx(tx *gorm.DB) *GormSubscriptionRepository
}

// GormSubscriptionRepository GORM 实现
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓库
func NewSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSubscriptionRepository) WithTx(tx *gorm.DB) *GormSubscriptionRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionRepository{db: tx}
}

// ListPlans 套餐列表
func (r *GormSubscriptionRepository) ListPlans(onlyActive bool) ([]models.SubscriptionPlan, error) {
	query := r.db.Model(&models.SubscriptionPlan{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var plans []models.SubscriptionPlan
	if err := query.Order("sort_order DESC, id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlanByID 获取套餐
func (r *GormSubscriptionRepository) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	if id == 0 {
		return nil, nil
	}
	var plan models.SubscriptionPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// Create 创建订阅记录
func (r *GormSubscriptionRepository) Create(sub *models.UserSubscription) error {
	return r.db.Create(sub).Error
}

// GetByID 获取订阅记录
func (r *GormSubscriptionRepository) GetByID(id uint) (*models.UserSubscription, error) {
	return r.getByID(r.db, id)
}

// GetByIDForUpdate 加锁获取订阅记录
func (r *GormSubscriptionRepository) GetByIDForUpdate(id uint) (*models.UserSubscription, error) {
	return r.getByID(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormSubscriptionRepository) getByID(db *gorm.DB, id uint) (*models.UserSubscription, error) {
	if id == 0 {
		return nil, nil
	}
	var sub models.UserSubscription
	if err := db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUser 获取用户当前 active 订阅
func (r *GormSubscriptionRepository) GetActiveByUser(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.db.Where("user_id = ? AND status = ?", userID, constants.SubscriptionStatusActive).
		Order("activated_at DESC, id DESC").
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListByUser 用户订阅历史，按激活时间倒序
func (r *GormSubscriptionRepository) ListByUser(userID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	if err := r.db.Where("user_id = ?", userID).
		Order("activated_at DESC, id DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// CancelActiveByUser 取消用户全部 active 订阅
func (r *GormSubscriptionRepository) CancelActiveByUser(userID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND status = ?", userID, constants.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       constants.SubscriptionStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}

// Cancel 取消指定 active 订阅，非 active 时影响行数为 0
func (r *GormSubscriptionRepository) Cancel(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.UserSubscription{}).
		Where("id = ? AND status = ?", id, constants.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       constants.SubscriptionStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}

// ConsumeCredit 扣减一杯额度并写入当日用量
// 订阅非 active、余额不足或当日已达上限时影响行数为 0；usage_date 不是当日时视为当日用量已归零
func (r *GormSubscriptionRepository) ConsumeCredit(id uint, day string, usedToday int) (int64, error) {
	result := r.db.Model(&models.UserSubscription{}).
		Where("id = ? AND status = ? AND remaining_credits > 0", id, constants.SubscriptionStatusActive).
		Where("daily_limit <= 0 OR usage_date <> ? OR used_today < daily_limit", day).
		Updates(map[string]interface{}{
			"remaining_credits": gorm.Expr("remaining_credits - ?", 1),
			"used_today":        usedToday,
			"usage_date":        day,
		})
	return result.RowsAffected, result.Error
}

// ExpireOverdue 将已过期的 active 订阅标记为 expired，返回被处理的记录
func (r *GormSubscriptionRepository) ExpireOverdue(now time.Time) ([]models.UserSubscription, error) {
	var overdue []models.UserSubscription
	if err := r.db.Where("status = ? AND expires_at < ?", constants.SubscriptionStatusActive, now).
		Find(&overdue).Error; err != nil {
		return nil, err
	}
	if len(overdue) == 0 {
		return overdue, nil
	}
	ids := make([]uint, 0, len(overdue))
	for _, sub := range overdue {
		ids = append(ids, sub.ID)
	}
	if err := r.db.Model(&models.UserSubscription{}).
		Where("id IN ? AND status = ?", ids, constants.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.SubscriptionStatusExpired,
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}
	return overdue, nil
}
