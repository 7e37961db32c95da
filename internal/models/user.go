package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（顾客与合作方共用）
type User struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Email                string         `gorm:"uniqueIndex;not null" json:"email"`                              // 邮箱
	Phone                string         `gorm:"type:varchar(32);default:''" json:"phone"`                       // 手机号
	PasswordHash         string         `gorm:"not null" json:"-"`                                              // 密码哈希（不返回给前端）
	DisplayName          string         `gorm:"default:''" json:"display_name"`                                 // 昵称
	Role                 string         `gorm:"type:varchar(16);index;not null;default:'customer'" json:"role"` // 角色（customer/partner）
	Status               string         `gorm:"type:varchar(16);default:'active'" json:"status"`                // 账号状态
	TokenVersion         uint64         `gorm:"not null;default:0" json:"-"`                                    // Token 版本（用于全量失效）
	ActiveSubscriptionID *uint          `gorm:"index" json:"active_subscription_id,omitempty"`                  // 当前订阅记录
	BeansRedeemed        int64          `gorm:"not null;default:0" json:"beans_redeemed"`                       // 累计兑换杯数
	LastLoginAt          *time.Time     `json:"last_login_at"`                                                  // 最后登录时间
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// ContactLabel 返回用于展示的联系方式，邮箱优先
func (u *User) ContactLabel() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Phone
}
