package models

import (
	"time"
)

// RedemptionToken 一次性兑换码（只创建与单次核销，不删除）
type RedemptionToken struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                               // 主键
	UniqueCode       string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"unique_code"`           // 随机兑换码
	UserID           uint       `gorm:"index:idx_token_user_cafe_used,priority:1;not null" json:"user_id"`  // 顾客
	CafeID           uint       `gorm:"index:idx_token_user_cafe_used,priority:2;not null" json:"cafe_id"`  // 咖啡馆
	ProductID        *uint      `gorm:"index" json:"product_id,omitempty"`                                  // 商品（可选）
	SubscriptionID   uint       `gorm:"index;not null" json:"subscription_id"`                              // 签发时的订阅记录
	SubscriptionType string     `gorm:"type:varchar(80);default:''" json:"subscription_type"`               // 签发时的套餐名称快照
	IssuedAt         time.Time  `gorm:"index;not null" json:"issued_at"`                                    // 签发时间
	ValidUntil       time.Time  `gorm:"index;not null" json:"valid_until"`                                  // 过期时间
	IsUsed           bool       `gorm:"not null;default:false" json:"is_used"`                              // 是否已核销
	UsedAt           *time.Time `gorm:"index:idx_token_user_cafe_used,priority:3" json:"used_at,omitempty"` // 核销时间
	UsedByPartnerID  *uint      `gorm:"index" json:"used_by_partner_id,omitempty"`                          // 核销合作方
	CreatedAt        time.Time  `json:"created_at"`                                                         // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                         // 更新时间
}

// TableName 指定表名
func (RedemptionToken) TableName() string {
	return "redemption_tokens"
}

// IsRedeemableAt 未核销且未过期时可兑换
func (t *RedemptionToken) IsRedeemableAt(now time.Time) bool {
	return t != nil && !t.IsUsed && !t.ValidUntil.Before(now)
}
