package models

import (
	"time"

	"github.com/beanpass/internal/constants"
)

// UserSubscription 用户订阅记录
type UserSubscription struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                           // 主键
	UserID           uint       `gorm:"index;not null" json:"user_id"`                                  // 用户ID
	PlanID           uint       `gorm:"index;not null" json:"plan_id"`                                  // 套餐ID
	PlanName         string     `gorm:"type:varchar(80);not null" json:"plan_name"`                     // 套餐名称快照
	TotalCredits     int        `gorm:"not null" json:"total_credits"`                                  // 总杯数
	RemainingCredits int        `gorm:"not null" json:"remaining_credits"`                              // 剩余杯数
	DailyLimit       int        `gorm:"not null;default:0" json:"daily_limit"`                          // 每日上限（0 表示不限）
	UsedToday        int        `gorm:"not null;default:0" json:"used_today"`                           // 当日已用
	UsageDate        string     `gorm:"type:varchar(10);default:''" json:"usage_date"`                  // UsedToday 对应日期
	PricePaid        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"price_paid"`        // 实付金额
	Status           string     `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"` // 状态
	ActivatedAt      time.Time  `gorm:"index" json:"activated_at"`                                      // 激活时间
	ExpiresAt        time.Time  `gorm:"index" json:"expires_at"`                                        // 到期时间
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`                                         // 取消时间
	CreatedAt        time.Time  `json:"created_at"`                                                     // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// IsActive 是否处于 active 状态
func (s *UserSubscription) IsActive() bool {
	return s != nil && s.Status == constants.SubscriptionStatusActive
}

// IsExpiredAt 到期判断，expires_at 当刻仍可用
func (s *UserSubscription) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// UsedOn 返回指定日期的已用杯数，跨日自动归零
func (s *UserSubscription) UsedOn(day string) int {
	if s.UsageDate != day {
		return 0
	}
	return s.UsedToday
}

// RemainingToday 计算当日剩余可兑换杯数
func (s *UserSubscription) RemainingToday(day string) int {
	if s == nil || s.RemainingCredits <= 0 {
		return 0
	}
	if s.DailyLimit <= 0 {
		return s.RemainingCredits
	}
	left := s.DailyLimit - s.UsedOn(day)
	if left < 0 {
		left = 0
	}
	if left > s.RemainingCredits {
		return s.RemainingCredits
	}
	return left
}
