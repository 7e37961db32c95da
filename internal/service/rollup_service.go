package service

import (
	"context"
	"errors"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/metrics"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RollupReport 日终任务执行结果
type RollupReport struct {
	Date                 string `json:"date"`
	ExpiredSubscriptions int    `json:"expired_subscriptions"`
	Partners             int    `json:"partners"`
	FailedPartners       int    `json:"failed_partners"`
}

// RollupService 日终统计任务
type RollupService struct {
	cfg           config.AnalyticsConfig
	userRepo      repository.UserRepository
	cafeRepo      repository.CafeRepository
	analyticsRepo repository.AnalyticsRepository
	subscriptions *SubscriptionService
	observer      metrics.Observer
	loc           *time.Location
}

// NewRollupService 创建日终任务服务
func NewRollupService(
	cfg config.AnalyticsConfig,
	userRepo repository.UserRepository,
	cafeRepo repository.CafeRepository,
	analyticsRepo repository.AnalyticsRepository,
	subscriptions *SubscriptionService,
	observer metrics.Observer,
) *RollupService {
	return &RollupService{
		cfg:           cfg,
		userRepo:      userRepo,
		cafeRepo:      cafeRepo,
		analyticsRepo: analyticsRepo,
		subscriptions: subscriptions,
		observer:      observerOrNop(observer),
		loc:           cfg.Location(),
	}
}

// RunDaily 过期订阅、把昨日统计写到咖啡馆、重算周汇总；单个合作方失败不影响其他合作方
func (s *RollupService) RunDaily(ctx context.Context, now time.Time) (*RollupReport, error) {
	started := time.Now()
	report, err := s.runDaily(ctx, now)
	s.observer.RecordRollup(time.Since(started), err)
	return report, err
}

func (s *RollupService) runDaily(ctx context.Context, now time.Time) (*RollupReport, error) {
	log := logger.Component("daily_rollup")
	yesterday := now.In(s.loc).AddDate(0, 0, -1)
	report := &RollupReport{Date: yesterday.Format(constants.DateLayout)}

	if s.subscriptions != nil {
		expired, err := s.subscriptions.ExpireOverdue(now)
		if err != nil {
			log.Errorw("subscription_expire_failed", "error", err)
		}
		report.ExpiredSubscriptions = expired
	}

	partnerIDs, err := s.userRepo.ListIDsByRole(constants.RolePartner)
	if err != nil {
		log.Errorw("partner_list_failed", "error", err)
		return report, err
	}
	report.Partners = len(partnerIDs)

	var failed []error
	for _, partnerID := range partnerIDs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err := s.rollupPartner(ctx, partnerID, yesterday, now); err != nil {
			report.FailedPartners++
			failed = append(failed, err)
			log.Errorw("partner_rollup_failed", "partner_id", partnerID, "date", report.Date, "error", err)
		}
	}

	log.Infow("daily_rollup_done",
		"date", report.Date,
		"partners", report.Partners,
		"failed_partners", report.FailedPartners,
		"expired_subscriptions", report.ExpiredSubscriptions,
	)
	return report, errors.Join(failed...)
}

func (s *RollupService) rollupPartner(ctx context.Context, partnerID uint, yesterday, now time.Time) error {
	day := yesterday.Format(constants.DateLayout)
	return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		analyticsRepo := s.analyticsRepo.WithTx(tx)
		daily, err := analyticsRepo.GetDaily(partnerID, day)
		if err != nil {
			return err
		}
		if _, err := s.cafeRepo.WithTx(tx).UpdateLastDailyStats(partnerID, dailyStatsJSON(day, daily), day); err != nil {
			return err
		}

		summary, err := s.buildWeekly(analyticsRepo, partnerID, yesterday)
		if err != nil {
			return err
		}
		summary.ComputedAt = now
		return analyticsRepo.UpsertWeekly(summary)
	})
}

// buildWeekly 以 end 为最后一天，重新扫描窗口内的日统计
func (s *RollupService) buildWeekly(repo repository.AnalyticsRepository, partnerID uint, end time.Time) (*models.PartnerWeeklySummary, error) {
	window := s.cfg.NormalizedWeeklyWindow()
	from := end.AddDate(0, 0, -(window - 1)).Format(constants.DateLayout)
	to := end.Format(constants.DateLayout)

	rows, err := repo.ListDailyRange(partnerID, from, to)
	if err != nil {
		return nil, err
	}
	summary := &models.PartnerWeeklySummary{
		PartnerID:    partnerID,
		WeekStart:    from,
		WeekEnd:      to,
		BusiestHour:  -1,
		HourlyTotals: make(models.IntArray, HoursPerDay),
	}
	revenue := decimal.Zero
	var busiest int64
	for _, row := range rows {
		summary.CoffeesServed += row.CoffeesServed
		summary.NewCustomers += row.NewCustomers
		revenue = revenue.Add(row.Revenue.Decimal)
		if row.CoffeesServed > busiest {
			busiest = row.CoffeesServed
			summary.BusiestDay = row.StatDate
		}
	}
	summary.Revenue = models.NewMoneyFromDecimal(revenue)
	summary.AverageDaily = float64(summary.CoffeesServed) / float64(window)

	unique, err := repo.CountUniqueCustomers(partnerID, from, to)
	if err != nil {
		return nil, err
	}
	summary.UniqueCustomers = unique

	hours, err := repo.SumHourlyRange(partnerID, from, to)
	if err != nil {
		return nil, err
	}
	for _, h := range hours {
		if h.Hour >= 0 && h.Hour < HoursPerDay {
			summary.HourlyTotals[h.Hour] = int(h.Total)
		}
	}
	busiestHour := 0
	for hour, total := range summary.HourlyTotals {
		if total > busiestHour {
			busiestHour = total
			summary.BusiestHour = hour
		}
	}
	return summary, nil
}

func dailyStatsJSON(day string, daily *models.PartnerDailyAnalytics) models.JSON {
	stats := models.JSON{
		"date":             day,
		"coffees_served":   int64(0),
		"revenue":          "0.00",
		"new_customers":    int64(0),
		"unique_customers": int64(0),
	}
	if daily == nil {
		return stats
	}
	stats["coffees_served"] = daily.CoffeesServed
	stats["revenue"] = daily.Revenue.String()
	stats["new_customers"] = daily.NewCustomers
	stats["unique_customers"] = daily.UniqueCustomers
	return stats
}
