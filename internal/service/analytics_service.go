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

// HoursPerDay 小时分布槽位数
const HoursPerDay = 24

// AnalyticsService 合作方统计服务
type AnalyticsService struct {
	cfg           config.AnalyticsConfig
	tokenRepo     repository.RedemptionTokenRepository
	cafeRepo      repository.CafeRepository
	analyticsRepo repository.AnalyticsRepository
	observer      metrics.Observer
	loc           *time.Location
	now           func() time.Time
}

// NewAnalyticsService 创建统计服务
func NewAnalyticsService(
	cfg config.AnalyticsConfig,
	tokenRepo repository.RedemptionTokenRepository,
	cafeRepo repository.CafeRepository,
	analyticsRepo repository.AnalyticsRepository,
	observer metrics.Observer,
) *AnalyticsService {
	return &AnalyticsService{
		cfg:           cfg,
		tokenRepo:     tokenRepo,
		cafeRepo:      cafeRepo,
		analyticsRepo: analyticsRepo,
		observer:      observerOrNop(observer),
		loc:           cfg.Location(),
		now:           time.Now,
	}
}

// DailyReport 日统计报表
type DailyReport struct {
	PartnerID       uint                     `json:"partner_id"`
	Date            string                   `json:"date"`
	CoffeesServed   int64                    `json:"coffees_served"`
	Revenue         models.Money             `json:"revenue"`
	NewCustomers    int64                    `json:"new_customers"`
	UniqueCustomers int64                    `json:"unique_customers"`
	Hourly          []int64                  `json:"hourly"`
	Redemptions     []models.RedemptionEvent `json:"redemptions"`
}

// MonthlyReport 月统计报表
type MonthlyReport struct {
	PartnerID       uint         `json:"partner_id"`
	Month           string       `json:"month"`
	CoffeesServed   int64        `json:"coffees_served"`
	Revenue         models.Money `json:"revenue"`
	NewCustomers    int64        `json:"new_customers"`
	UniqueCustomers int64        `json:"unique_customers"`
}

// IsConsumedTransition 仅 未使用 -> 已使用 的变化触发统计
func IsConsumedTransition(before, after *models.RedemptionToken) bool {
	if before == nil || after == nil {
		return false
	}
	return !before.IsUsed && after.IsUsed
}

// ApplyRedemption 将一次核销计入日/月统计；同一兑换码重复投递只生效一次
func (s *AnalyticsService) ApplyRedemption(ctx context.Context, tokenID uint) error {
	applied, err := s.applyRedemption(ctx, tokenID)
	switch {
	case err != nil:
		s.observer.RecordAnalyticsApply(metrics.OutcomeError)
	case !applied:
		s.observer.RecordAnalyticsApply(metrics.OutcomeDuplicate)
	default:
		s.observer.RecordAnalyticsApply(metrics.OutcomeSuccess)
	}
	return err
}

func (s *AnalyticsService) applyRedemption(ctx context.Context, tokenID uint) (bool, error) {
	applied := false
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.tokenRepo.WithTx(tx).GetByID(tokenID)
		if err != nil {
			return err
		}
		if token == nil {
			return ErrQRCodeNotFound
		}
		if !token.IsUsed || token.UsedAt == nil {
			return ErrTokenNotConsumed
		}

		cafeRepo := s.cafeRepo.WithTx(tx)
		cafe, err := cafeRepo.GetByID(token.CafeID)
		if err != nil {
			return err
		}
		if cafe == nil {
			return ErrCafeNotFound
		}
		partnerID := cafe.PartnerID

		price := cafe.DefaultPrice
		if token.ProductID != nil {
			product, err := cafeRepo.GetProduct(cafe.ID, *token.ProductID)
			if err != nil {
				return err
			}
			if product != nil {
				price = product.Price
			}
		}

		isNew, err := s.isNewCustomer(s.tokenRepo.WithTx(tx), token)
		if err != nil {
			return err
		}

		usedAt := token.UsedAt.In(s.loc)
		day := usedAt.Format(constants.DateLayout)
		month := usedAt.Format(constants.MonthLayout)

		analyticsRepo := s.analyticsRepo.WithTx(tx)
		created, err := analyticsRepo.CreateEvent(&models.RedemptionEvent{
			TokenID:       token.ID,
			PartnerID:     partnerID,
			StatDate:      day,
			CafeID:        cafe.ID,
			UserID:        token.UserID,
			ProductID:     token.ProductID,
			Price:         price,
			IsNewCustomer: isNew,
			Hour:          usedAt.Hour(),
			RedeemedAt:    *token.UsedAt,
		})
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		dailyUnique, err := analyticsRepo.AddDailyCustomer(partnerID, day, token.UserID)
		if err != nil {
			return err
		}
		if err := analyticsRepo.IncrementDaily(partnerID, day, buildDelta(price.Decimal, isNew, dailyUnique)); err != nil {
			return err
		}
		if err := analyticsRepo.IncrementHourly(partnerID, day, usedAt.Hour()); err != nil {
			return err
		}
		monthlyUnique, err := analyticsRepo.AddMonthlyCustomer(partnerID, month, token.UserID)
		if err != nil {
			return err
		}
		if err := analyticsRepo.IncrementMonthly(partnerID, month, buildDelta(price.Decimal, isNew, monthlyUnique)); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTokenNotConsumed) && !errors.Is(err, ErrQRCodeNotFound) {
			err = errors.Join(ErrAnalyticsApplyFailed, err)
		}
		logger.Errorw("analytics_apply_failed", "token_id", tokenID, "error", err)
		return false, err
	}
	if applied {
		logger.Debugw("analytics_applied", "token_id", tokenID)
	} else {
		logger.Infow("analytics_apply_duplicate_skipped", "token_id", tokenID)
	}
	return applied, nil
}

// isNewCustomer 查询该顾客在此咖啡馆最早的两条核销记录，本次为首条时判定为新客
func (s *AnalyticsService) isNewCustomer(tokenRepo repository.RedemptionTokenRepository, token *models.RedemptionToken) (bool, error) {
	firsts, err := tokenRepo.ListFirstRedemptions(token.UserID, token.CafeID, s.cfg.NormalizedLookback())
	if err != nil {
		return false, err
	}
	if len(firsts) == 0 {
		return true, nil
	}
	return firsts[0].ID == token.ID, nil
}

func buildDelta(price decimal.Decimal, isNew, isUnique bool) repository.CounterDelta {
	delta := repository.CounterDelta{CoffeesServed: 1, Revenue: price}
	if isNew {
		delta.NewCustomers = 1
	}
	if isUnique {
		delta.UniqueCustomers = 1
	}
	return delta
}

// GetDaily 合作方日报表，date 为空时取今天
func (s *AnalyticsService) GetDaily(partnerID uint, date string) (*DailyReport, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	day, err := s.normalizeDate(date)
	if err != nil {
		return nil, err
	}
	report := &DailyReport{
		PartnerID:   partnerID,
		Date:        day,
		Hourly:      make([]int64, HoursPerDay),
		Redemptions: []models.RedemptionEvent{},
	}
	row, err := s.analyticsRepo.GetDaily(partnerID, day)
	if err != nil {
		return nil, ErrAnalyticsFetchFailed
	}
	if row == nil {
		return report, nil
	}
	report.CoffeesServed = row.CoffeesServed
	report.Revenue = row.Revenue
	report.NewCustomers = row.NewCustomers
	report.UniqueCustomers = row.UniqueCustomers

	hours, err := s.analyticsRepo.ListHourly(partnerID, day)
	if err != nil {
		return nil, ErrAnalyticsFetchFailed
	}
	for _, h := range hours {
		if h.Hour >= 0 && h.Hour < HoursPerDay {
			report.Hourly[h.Hour] = h.Redemptions
		}
	}
	events, err := s.analyticsRepo.ListEvents(partnerID, day)
	if err != nil {
		return nil, ErrAnalyticsFetchFailed
	}
	report.Redemptions = events
	return report, nil
}

// GetMonthly 合作方月报表，month 为空时取本月
func (s *AnalyticsService) GetMonthly(partnerID uint, month string) (*MonthlyReport, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	if month == "" {
		month = monthKey(s.now(), s.loc)
	} else if _, err := time.ParseInLocation(constants.MonthLayout, month, s.loc); err != nil {
		return nil, ErrInvalidMonth
	}
	report := &MonthlyReport{PartnerID: partnerID, Month: month}
	row, err := s.analyticsRepo.GetMonthly(partnerID, month)
	if err != nil {
		return nil, ErrAnalyticsFetchFailed
	}
	if row != nil {
		report.CoffeesServed = row.CoffeesServed
		report.Revenue = row.Revenue
		report.NewCustomers = row.NewCustomers
		report.UniqueCustomers = row.UniqueCustomers
	}
	return report, nil
}

// GetWeekly 合作方最近一次日终任务写入的周汇总
func (s *AnalyticsService) GetWeekly(partnerID uint) (*models.PartnerWeeklySummary, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	summary, err := s.analyticsRepo.GetWeekly(partnerID)
	if err != nil {
		return nil, ErrAnalyticsFetchFailed
	}
	if summary == nil {
		return &models.PartnerWeeklySummary{PartnerID: partnerID, BusiestHour: -1, HourlyTotals: make(models.IntArray, HoursPerDay)}, nil
	}
	return summary, nil
}

func (s *AnalyticsService) normalizeDate(date string) (string, error) {
	if date == "" {
		return dayKey(s.now(), s.loc), nil
	}
	if _, err := time.ParseInLocation(constants.DateLayout, date, s.loc); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}
