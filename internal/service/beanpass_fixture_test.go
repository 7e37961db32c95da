package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db            *gorm.DB
	now           time.Time
	userRepo      *repository.GormUserRepository
	subRepo       *repository.GormSubscriptionRepository
	cafeRepo      *repository.GormCafeRepository
	tokenRepo     *repository.GormRedemptionTokenRepository
	outboxRepo    *repository.GormOutboxRepository
	analyticsRepo *repository.GormAnalyticsRepository
	subscriptions *SubscriptionService
	qrcodes       *QRCodeService
	redemptions   *RedemptionService
	analytics     *AnalyticsService
	analyticsCfg  config.AnalyticsConfig
}

func newServiceFixture(t *testing.T, name string) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库串行化写入，保证事务语义
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	f := &serviceFixture{
		db:            db,
		now:           time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		userRepo:      repository.NewUserRepository(db),
		subRepo:       repository.NewSubscriptionRepository(db),
		cafeRepo:      repository.NewCafeRepository(db),
		tokenRepo:     repository.NewRedemptionTokenRepository(db),
		outboxRepo:    repository.NewOutboxRepository(db),
		analyticsRepo: repository.NewAnalyticsRepository(db),
		analyticsCfg:  config.AnalyticsConfig{Timezone: "UTC", WeeklyWindow: 7, NewCustomerLookback: 2},
	}
	clock := func() time.Time { return f.now }
	loc := time.UTC

	f.subscriptions = NewSubscriptionService(f.subRepo, f.userRepo, loc)
	f.subscriptions.now = clock
	f.qrcodes = NewQRCodeService(config.QRConfig{TTLSeconds: 300, CodeBytes: 16}, f.userRepo, f.subRepo, f.cafeRepo, f.tokenRepo, nil, loc)
	f.qrcodes.now = clock
	f.redemptions = NewRedemptionService(f.cafeRepo, f.tokenRepo, f.subRepo, f.userRepo, f.outboxRepo, nil, loc)
	f.redemptions.now = clock
	f.analytics = NewAnalyticsService(f.analyticsCfg, f.tokenRepo, f.cafeRepo, f.analyticsRepo, nil)
	f.analytics.now = clock
	return f
}

func (f *serviceFixture) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *serviceFixture) createPlan(t *testing.T, name string, credits, dailyLimit int) *models.SubscriptionPlan {
	t.Helper()
	plan := &models.SubscriptionPlan{
		Name:         name,
		TotalCredits: credits,
		DailyLimit:   dailyLimit,
		DurationDays: 30,
		Price:        models.NewMoneyFromDecimal(decimal.RequireFromString("29.00")),
		IsActive:     true,
	}
	if err := f.db.Create(plan).Error; err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	return plan
}

func (f *serviceFixture) createCafe(t *testing.T, partnerID uint, name, price string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		PartnerID:    partnerID,
		Name:         name,
		DefaultPrice: models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		IsActive:     true,
	}
	if err := f.db.Create(cafe).Error; err != nil {
		t.Fatalf("create cafe failed: %v", err)
	}
	return cafe
}

// subscribedCustomer 创建已订阅的顾客
func (f *serviceFixture) subscribedCustomer(t *testing.T, email string, plan *models.SubscriptionPlan) (*models.User, *models.UserSubscription) {
	t.Helper()
	user := f.createUser(t, email, constants.RoleCustomer)
	sub, err := f.subscriptions.Subscribe(user.ID, plan.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	return user, sub
}

func (f *serviceFixture) reloadSubscription(t *testing.T, id uint) *models.UserSubscription {
	t.Helper()
	var sub models.UserSubscription
	if err := f.db.First(&sub, id).Error; err != nil {
		t.Fatalf("reload subscription failed: %v", err)
	}
	return &sub
}

func (f *serviceFixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}
