package models

import (
	"time"
)

// SubscriptionPlan 订阅套餐
type SubscriptionPlan struct {
	ID           uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name         string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"name"`  // 套餐名称
	Description  string    `gorm:"type:text" json:"description"`                       // 描述
	TotalCredits int       `gorm:"not null" json:"total_credits"`                      // 总杯数
	DailyLimit   int       `gorm:"not null;default:0" json:"daily_limit"`              // 每日上限（0 表示不限）
	DurationDays int       `gorm:"not null;default:30" json:"duration_days"`           // 有效天数
	Price        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 价格
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`                // 是否上架
	SortOrder    int       `gorm:"default:0;index" json:"sort_order"`                  // 排序权重
	CreatedAt    time.Time `json:"created_at"`                                         // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}
