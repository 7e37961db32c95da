package models

import (
	"time"

	"gorm.io/gorm"
)

// Cafe 合作咖啡馆
type Cafe struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                       // 主键
	PartnerID          uint           `gorm:"index;not null" json:"partner_id"`                           // 所属合作方
	Name               string         `gorm:"type:varchar(120);not null" json:"name"`                     // 名称
	Address            string         `gorm:"type:varchar(255);default:''" json:"address"`                // 地址
	City               string         `gorm:"type:varchar(64);index;default:''" json:"city"`              // 城市
	DefaultPrice       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"default_price"` // 未指定商品时的计价
	IsActive           bool           `gorm:"default:true;index" json:"is_active"`                        // 是否营业
	LastDailyStats     JSON           `gorm:"type:json" json:"last_daily_stats,omitempty"`                // 昨日统计快照
	LastDailyStatsDate string         `gorm:"type:varchar(10);default:''" json:"last_daily_stats_date"`   // 快照日期
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Products []Product `gorm:"foreignKey:CafeID" json:"products,omitempty"` // 商品列表
}

// TableName 指定表名
func (Cafe) TableName() string {
	return "cafes"
}
