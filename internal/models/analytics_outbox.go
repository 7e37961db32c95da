package models

import (
	"time"
)

// AnalyticsOutbox 统计事件发件箱，与核销同事务写入
type AnalyticsOutbox struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                  // 主键
	EventID        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_id"` // 事件ID（uuid）
	EventType      string     `gorm:"type:varchar(64);index;not null" json:"event_type"`     // 事件类型
	TokenID        uint       `gorm:"index;not null" json:"token_id"`                        // 兑换码ID
	Payload        string     `gorm:"type:text" json:"payload"`                              // 事件内容
	RetryCount     int        `gorm:"not null;default:0" json:"retry_count"`                 // 失败次数
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`                 // 最近错误
	LastErrorAt    *time.Time `json:"last_error_at,omitempty"`                               // 最近错误时间
	ClaimToken     *string    `gorm:"type:varchar(64);index" json:"-"`                       // 认领标识
	ClaimUntil     *time.Time `gorm:"index" json:"-"`                                        // 认领截止
	PublishedAt    *time.Time `gorm:"index" json:"published_at,omitempty"`                   // 投递成功时间
	DeadLetteredAt *time.Time `gorm:"index" json:"dead_lettered_at,omitempty"`               // 进入死信时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
}

// TableName 指定表名
func (AnalyticsOutbox) TableName() string {
	return "analytics_outbox"
}
