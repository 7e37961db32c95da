package models

import "time"

// UserLoginLog 用户登录日志
// 说明：顾客与合作方共用，失败记录 user_id 可能为 0。
type UserLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                           // 主键
	UserID     uint      `gorm:"index" json:"user_id"`                           // 用户ID（失败时可为0）
	Email      string    `gorm:"index;not null" json:"email"`                    // 登录尝试邮箱
	Status     string    `gorm:"type:varchar(16);index;not null" json:"status"`  // success / failed
	FailReason string    `gorm:"type:varchar(32);index" json:"fail_reason"`      // 失败原因枚举
	ClientIP   string    `gorm:"type:varchar(64);index" json:"client_ip"`        // 客户端IP
	UserAgent  string    `gorm:"type:varchar(255);default:''" json:"user_agent"` // 客户端UA（截断）
	Source     string    `gorm:"type:varchar(16);default:'api'" json:"source"`   // 登录来源
	RequestID  string    `gorm:"type:varchar(64);default:''" json:"request_id"`  // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                        // 记录时间
}

// TableName 指定表名
func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
