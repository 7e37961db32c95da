package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const demoPassword = "beanpass-demo"

type demoCafe struct {
	name     string
	city     string
	address  string
	price    string
	products []demoProduct
}

type demoProduct struct {
	name  string
	price string
}

var demoCafes = []demoCafe{
	{
		name: "Bean Bar", city: "Lisbon", address: "Rua Augusta 12", price: "3.50",
		products: []demoProduct{{name: "Espresso", price: "2.20"}, {name: "Flat White", price: "3.80"}},
	},
	{
		name: "Roast Corner", city: "Porto", address: "Rua das Flores 7", price: "3.20",
		products: []demoProduct{{name: "Cortado", price: "2.60"}, {name: "Cold Brew", price: "4.10"}},
	},
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultPlans(); err != nil {
		stdLog.Fatalf("Failed to seed plans: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		partner, err := ensureUser(tx, "partner@beanpass.local", "Demo Partner", constants.RolePartner, string(hash))
		if err != nil {
			return err
		}
		for _, item := range demoCafes {
			if err := ensureCafe(tx, partner.ID, item); err != nil {
				return err
			}
		}

		customer, err := ensureUser(tx, "customer@beanpass.local", "Demo Customer", constants.RoleCustomer, string(hash))
		if err != nil {
			return err
		}
		return ensureSubscription(tx, customer)
	})
	if err != nil {
		stdLog.Fatalf("Failed to seed demo data: %v", err)
	}

	fmt.Println("Seed completed")
	fmt.Printf("  partner:  partner@beanpass.local / %s\n", demoPassword)
	fmt.Printf("  customer: customer@beanpass.local / %s\n", demoPassword)
}

func ensureUser(tx *gorm.DB, email, name, role, hash string) (*models.User, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user = models.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ensureCafe(tx *gorm.DB, partnerID uint, item demoCafe) error {
	var count int64
	if err := tx.Model(&models.Cafe{}).Where("partner_id = ? AND name = ?", partnerID, item.name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	cafe := models.Cafe{
		PartnerID:    partnerID,
		Name:         item.name,
		City:         item.city,
		Address:      item.address,
		DefaultPrice: models.NewMoneyFromDecimal(decimal.RequireFromString(item.price)),
		IsActive:     true,
	}
	for i, product := range item.products {
		cafe.Products = append(cafe.Products, models.Product{
			Name:      product.name,
			Price:     models.NewMoneyFromDecimal(decimal.RequireFromString(product.price)),
			IsActive:  true,
			SortOrder: len(item.products) - i,
		})
	}
	return tx.Create(&cafe).Error
}

func ensureSubscription(tx *gorm.DB, customer *models.User) error {
	if customer.ActiveSubscriptionID != nil {
		return nil
	}
	var plan models.SubscriptionPlan
	if err := tx.Where("is_active = ?", true).Order("sort_order DESC, id ASC").First(&plan).Error; err != nil {
		return err
	}
	now := time.Now()
	sub := models.UserSubscription{
		UserID:           customer.ID,
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		Status:           constants.SubscriptionStatusActive,
		TotalCredits:     plan.TotalCredits,
		RemainingCredits: plan.TotalCredits,
		DailyLimit:       plan.DailyLimit,
		PricePaid:        plan.Price,
		ActivatedAt:      now,
		ExpiresAt:        now.AddDate(0, 0, plan.DurationDays),
	}
	if err := tx.Create(&sub).Error; err != nil {
		return err
	}
	return tx.Model(customer).Update("active_subscription_id", sub.ID).Error
}
