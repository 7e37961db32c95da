package models

import (
	"time"
)

// RedemptionEvent 日统计下的核销事件明细，token_id 唯一保证统计只应用一次
type RedemptionEvent struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                                               // 主键
	TokenID       uint      `gorm:"uniqueIndex;not null" json:"token_id"`                                               // 兑换码ID
	PartnerID     uint      `gorm:"index:idx_event_partner_date,priority:1;not null" json:"partner_id"`                 // 合作方
	StatDate      string    `gorm:"type:varchar(10);index:idx_event_partner_date,priority:2;not null" json:"stat_date"` // 统计日期
	CafeID        uint      `gorm:"index;not null" json:"cafe_id"`                                                      // 咖啡馆
	UserID        uint      `gorm:"index;not null" json:"user_id"`                                                      // 顾客
	ProductID     *uint     `json:"product_id,omitempty"`                                                               // 商品
	Price         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`                                 // 计价
	IsNewCustomer bool      `gorm:"not null;default:false" json:"is_new_customer"`                                      // 是否新客
	Hour          int       `gorm:"not null" json:"hour"`                                                               // 小时（0-23）
	RedeemedAt    time.Time `gorm:"index;not null" json:"redeemed_at"`                                                  // 核销时间
	CreatedAt     time.Time `json:"created_at"`                                                                         // 创建时间
}

// TableName 指定表名
func (RedemptionEvent) TableName() string {
	return "redemption_events"
}

// PartnerDailyAnalytics 合作方日统计
type PartnerDailyAnalytics struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                                               // 主键
	PartnerID       uint      `gorm:"uniqueIndex:uk_partner_daily,priority:1;not null" json:"partner_id"`                 // 合作方
	StatDate        string    `gorm:"type:varchar(10);uniqueIndex:uk_partner_daily,priority:2;not null" json:"stat_date"` // 日期
	CoffeesServed   int64     `gorm:"not null;default:0" json:"coffees_served"`                                           // 出杯数
	Revenue         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"revenue"`                               // 营收
	NewCustomers    int64     `gorm:"not null;default:0" json:"new_customers"`                                            // 新客数
	UniqueCustomers int64     `gorm:"not null;default:0" json:"unique_customers"`                                         // 去重顾客数
	CreatedAt       time.Time `json:"created_at"`                                                                         // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                                         // 更新时间
}

// TableName 指定表名
func (PartnerDailyAnalytics) TableName() string {
	return "partner_daily_analytics"
}

// PartnerDailyCustomer 日去重顾客集合
type PartnerDailyCustomer struct {
	ID        uint   `gorm:"primarykey"`
	PartnerID uint   `gorm:"uniqueIndex:uk_partner_daily_customer,priority:1;not null"`
	StatDate  string `gorm:"type:varchar(10);uniqueIndex:uk_partner_daily_customer,priority:2;not null"`
	UserID    uint   `gorm:"uniqueIndex:uk_partner_daily_customer,priority:3;not null"`
}

// TableName 指定表名
func (PartnerDailyCustomer) TableName() string {
	return "partner_daily_customers"
}

// PartnerHourlyRedemption 日内小时分布
type PartnerHourlyRedemption struct {
	ID          uint   `gorm:"primarykey"`
	PartnerID   uint   `gorm:"uniqueIndex:uk_partner_hourly,priority:1;not null"`
	StatDate    string `gorm:"type:varchar(10);uniqueIndex:uk_partner_hourly,priority:2;not null"`
	Hour        int    `gorm:"uniqueIndex:uk_partner_hourly,priority:3;not null"`
	Redemptions int64  `gorm:"not null;default:0"`
}

// TableName 指定表名
func (PartnerHourlyRedemption) TableName() string {
	return "partner_hourly_redemptions"
}

// PartnerMonthlySummary 合作方月统计
type PartnerMonthlySummary struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	PartnerID       uint      `gorm:"uniqueIndex:uk_partner_monthly,priority:1;not null" json:"partner_id"`            // 合作方
	Month           string    `gorm:"type:varchar(7);uniqueIndex:uk_partner_monthly,priority:2;not null" json:"month"` // 月份 YYYY-MM
	CoffeesServed   int64     `gorm:"not null;default:0" json:"coffees_served"`                                        // 出杯数
	Revenue         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"revenue"`                            // 营收
	NewCustomers    int64     `gorm:"not null;default:0" json:"new_customers"`                                         // 新客数
	UniqueCustomers int64     `gorm:"not null;default:0" json:"unique_customers"`                                      // 去重顾客数
	CreatedAt       time.Time `json:"created_at"`                                                                      // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                                      // 更新时间
}

// TableName 指定表名
func (PartnerMonthlySummary) TableName() string {
	return "partner_monthly_summaries"
}

// PartnerMonthlyCustomer 月去重顾客集合
type PartnerMonthlyCustomer struct {
	ID        uint   `gorm:"primarykey"`
	PartnerID uint   `gorm:"uniqueIndex:uk_partner_monthly_customer,priority:1;not null"`
	Month     string `gorm:"type:varchar(7);uniqueIndex:uk_partner_monthly_customer,priority:2;not null"`
	UserID    uint   `gorm:"uniqueIndex:uk_partner_monthly_customer,priority:3;not null"`
}

// TableName 指定表名
func (PartnerMonthlyCustomer) TableName() string {
	return "partner_monthly_customers"
}

// PartnerWeeklySummary 合作方近 7 日汇总（每个合作方一行，由定时任务覆盖写入）
type PartnerWeeklySummary struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                 // 主键
	PartnerID       uint      `gorm:"uniqueIndex;not null" json:"partner_id"`               // 合作方
	WeekStart       string    `gorm:"type:varchar(10);not null" json:"week_start"`          // 窗口起始日
	WeekEnd         string    `gorm:"type:varchar(10);not null" json:"week_end"`            // 窗口结束日
	CoffeesServed   int64     `gorm:"not null;default:0" json:"coffees_served"`             // 出杯数
	Revenue         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"revenue"` // 营收
	NewCustomers    int64     `gorm:"not null;default:0" json:"new_customers"`              // 新客数
	UniqueCustomers int64     `gorm:"not null;default:0" json:"unique_customers"`           // 窗口内去重顾客数
	AverageDaily    float64   `gorm:"not null;default:0" json:"average_daily"`              // 日均出杯
	BusiestDay      string    `gorm:"type:varchar(10);default:''" json:"busiest_day"`       // 最忙日期
	BusiestHour     int       `gorm:"not null;default:-1" json:"busiest_hour"`              // 最忙小时（-1 表示无数据）
	HourlyTotals    IntArray  `gorm:"type:json" json:"hourly_totals"`                       // 窗口小时分布
	ComputedAt      time.Time `json:"computed_at"`                                          // 计算时间
	CreatedAt       time.Time `json:"created_at"`                                           // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (PartnerWeeklySummary) TableName() string {
	return "partner_weekly_summaries"
}
