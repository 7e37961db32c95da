package models

import (
	"github.com/beanpass/internal/logger"
)

// DefaultPlans 首次启动写入的默认套餐
func DefaultPlans() []SubscriptionPlan {
	return []SubscriptionPlan{
		{Name: "Starter", Description: "10 coffees per month", TotalCredits: 10, DailyLimit: 1, DurationDays: 30, Price: NewMoneyFromString("19.99"), IsActive: true, SortOrder: 30},
		{Name: "Regular", Description: "30 coffees per month", TotalCredits: 30, DailyLimit: 2, DurationDays: 30, Price: NewMoneyFromString("49.99"), IsActive: true, SortOrder: 20},
		{Name: "Unlimited", Description: "Up to 5 coffees per day", TotalCredits: 150, DailyLimit: 5, DurationDays: 30, Price: NewMoneyFromString("89.99"), IsActive: true, SortOrder: 10},
	}
}

// InitDefaultPlans 套餐表为空时写入默认套餐
func InitDefaultPlans() error {
	var count int64
	if err := DB.Model(&SubscriptionPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	plans := DefaultPlans()
	if err := DB.Create(&plans).Error; err != nil {
		return err
	}
	logger.Infow("default_plans_created", "count", len(plans))
	return nil
}
