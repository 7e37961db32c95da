package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 咖啡馆商品
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`                               // 主键
	CafeID    uint           `gorm:"index;not null" json:"cafe_id"`                      // 咖啡馆ID
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`             // 名称
	Price     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 价格
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`                // 是否上架
	SortOrder int            `gorm:"default:0" json:"sort_order"`                        // 排序权重
	CreatedAt time.Time      `json:"created_at"`                                         // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "cafe_products"
}
