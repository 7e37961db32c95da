package repository

import (
	"errors"

	"github.com/beanpass/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterDelta 统计计数增量
type CounterDelta struct {
	CoffeesServed   int64
	Revenue         decimal.Decimal
	NewCustomers    int64
	UniqueCustomers int64
}

// HourlyTotal 小时汇总
type HourlyTotal struct {
	Hour  int   `gorm:"column:hour"`
	Total int64 `gorm:"column:total"`
}

// AnalyticsRepository 合作方统计数据访问接口
type AnalyticsRepository interface {
	CreateEvent(event *models.RedemptionEvent) (bool, error)
	IncrementDaily(partnerID uint, day string, delta CounterDelta) error
	AddDailyCustomer(partnerID uint, day string, userID uint) (bool, error)
	IncrementHourly(partnerID uint, day string, hour int) error
	IncrementMonthly(partnerID uint, month string, delta CounterDelta) error
	AddMonthlyCustomer(partnerID uint, month string, userID uint) (bool, error)
	GetDaily(partnerID uint, day string) (*models.PartnerDailyAnalytics, error)
	ListHourly(partnerID uint, day string) ([]models.PartnerHourlyRedemption, error)
	ListEvents(partnerID uint, day string) ([]models.RedemptionEvent, error)
	GetMonthly(partnerID uint, month string) (*models.PartnerMonthlySummary, error)
	ListDailyRange(partnerID uint, from, to string) ([]models.PartnerDailyAnalytics, error)
	CountUniqueCustomers(partnerID uint, from, to string) (int64, error)
	SumHourlyRange(partnerID uint, from, to string) ([]HourlyTotal, error)
	UpsertWeekly(summary *models.PartnerWeeklySummary) error
	GetWeekly(partnerID uint) (*models.PartnerWeeklySummary, error)
	WithTx(tx *gorm.DB) *GormAnalyticsRepository
}

// GormAnalyticsRepository GORM 实现
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建统计仓库
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAnalyticsRepository) WithTx(tx *gorm.DB) *GormAnalyticsRepository {
	if tx == nil {
		return r
	}
	return &GormAnalyticsRepository{db: tx}
}

// CreateEvent 写入核销明细，token 已存在时返回 false
func (r *GormAnalyticsRepository) CreateEvent(event *models.RedemptionEvent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementDaily 累加日统计计数（行不存在时先创建）
func (r *GormAnalyticsRepository) IncrementDaily(partnerID uint, day string, delta CounterDelta) error {
	seed := models.PartnerDailyAnalytics{PartnerID: partnerID, StatDate: day}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}, {Name: "stat_date"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return err
	}
	return r.db.Model(&models.PartnerDailyAnalytics{}).
		Where("partner_id = ? AND stat_date = ?", partnerID, day).
		Updates(counterUpdates(delta)).Error
}

// AddDailyCustomer 加入日去重顾客集合，首次加入返回 true
func (r *GormAnalyticsRepository) AddDailyCustomer(partnerID uint, day string, userID uint) (bool, error) {
	row := models.PartnerDailyCustomer{PartnerID: partnerID, StatDate: day, UserID: userID}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}, {Name: "stat_date"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementHourly 小时分布 +1
func (r *GormAnalyticsRepository) IncrementHourly(partnerID uint, day string, hour int) error {
	seed := models.PartnerHourlyRedemption{PartnerID: partnerID, StatDate: day, Hour: hour}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}, {Name: "stat_date"}, {Name: "hour"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return err
	}
	return r.db.Model(&models.PartnerHourlyRedemption{}).
		Where("partner_id = ? AND stat_date = ? AND hour = ?", partnerID, day, hour).
		UpdateColumn("redemptions", gorm.Expr("redemptions + ?", 1)).Error
}

// IncrementMonthly 累加月统计计数
func (r *GormAnalyticsRepository) IncrementMonthly(partnerID uint, month string, delta CounterDelta) error {
	seed := models.PartnerMonthlySummary{PartnerID: partnerID, Month: month}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}, {Name: "month"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return err
	}
	return r.db.Model(&models.PartnerMonthlySummary{}).
		Where("partner_id = ? AND month = ?", partnerID, month).
		Updates(counterUpdates(delta)).Error
}

// AddMonthlyCustomer 加入月去重顾客集合，首次加入返回 true
func (r *GormAnalyticsRepository) AddMonthlyCustomer(partnerID uint, month string, userID uint) (bool, error) {
	row := models.PartnerMonthlyCustomer{PartnerID: partnerID, Month: month, UserID: userID}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}, {Name: "month"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func counterUpdates(delta CounterDelta) map[string]interface{} {
	return map[string]interface{}{
		"coffees_served":   gorm.Expr("coffees_served + ?", delta.CoffeesServed),
		"revenue":          gorm.Expr("revenue + ?", delta.Revenue.Round(2)),
		"new_customers":    gorm.Expr("new_customers + ?", delta.NewCustomers),
		"unique_customers": gorm.Expr("unique_customers + ?", delta.UniqueCustomers),
	}
}

// GetDaily 获取日统计
func (r *GormAnalyticsRepository) GetDaily(partnerID uint, day string) (*models.PartnerDailyAnalytics, error) {
	var row models.PartnerDailyAnalytics
	if err := r.db.Where("partner_id = ? AND stat_date = ?", partnerID, day).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListHourly 获取日内小时分布
func (r *GormAnalyticsRepository) ListHourly(partnerID uint, day string) ([]models.PartnerHourlyRedemption, error) {
	var rows []models.PartnerHourlyRedemption
	if err := r.db.Where("partner_id = ? AND stat_date = ?", partnerID, day).
		Order("hour ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEvents 获取日内核销明细
func (r *GormAnalyticsRepository) ListEvents(partnerID uint, day string) ([]models.RedemptionEvent, error) {
	var rows []models.RedemptionEvent
	if err := r.db.Where("partner_id = ? AND stat_date = ?", partnerID, day).
		Order("redeemed_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMonthly 获取月统计
func (r *GormAnalyticsRepository) GetMonthly(partnerID uint, month string) (*models.PartnerMonthlySummary, error) {
	var row models.PartnerMonthlySummary
	if err := r.db.Where("partner_id = ? AND month = ?", partnerID, month).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListDailyRange 获取日期区间内的日统计（闭区间）
func (r *GormAnalyticsRepository) ListDailyRange(partnerID uint, from, to string) ([]models.PartnerDailyAnalytics, error) {
	var rows []models.PartnerDailyAnalytics
	if err := r.db.Where("partner_id = ? AND stat_date >= ? AND stat_date <= ?", partnerID, from, to).
		Order("stat_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUniqueCustomers 日期区间内去重顾客数
func (r *GormAnalyticsRepository) CountUniqueCustomers(partnerID uint, from, to string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PartnerDailyCustomer{}).
		Where("partner_id = ? AND stat_date >= ? AND stat_date <= ?", partnerID, from, to).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumHourlyRange 日期区间内按小时汇总
func (r *GormAnalyticsRepository) SumHourlyRange(partnerID uint, from, to string) ([]HourlyTotal, error) {
	var rows []HourlyTotal
	if err := r.db.Model(&models.PartnerHourlyRedemption{}).
		Select("hour, SUM(redemptions) AS total").
		Where("partner_id = ? AND stat_date >= ? AND stat_date <= ?", partnerID, from, to).
		Group("hour").
		Order("hour ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertWeekly 覆盖写入合作方周汇总
func (r *GormAnalyticsRepository) UpsertWeekly(summary *models.PartnerWeeklySummary) error {
	if summary == nil {
		return errors.New("weekly summary is required")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"week_start",
			"week_end",
			"coffees_served",
			"revenue",
			"new_customers",
			"unique_customers",
			"average_daily",
			"busiest_day",
			"busiest_hour",
			"hourly_totals",
			"computed_at",
			"updated_at",
		}),
	}).Create(summary).Error
}

// GetWeekly 获取合作方周汇总
func (r *GormAnalyticsRepository) GetWeekly(partnerID uint) (*models.PartnerWeeklySummary, error) {
	var row models.PartnerWeeklySummary
	if err := r.db.Where("partner_id = ?", partnerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
