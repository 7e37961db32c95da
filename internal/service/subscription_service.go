package service

import (
	"context"
	"time"

	"github.com/beanpass/internal/cache"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"gorm.io/gorm"
)

const publicPlansCacheKey = "public:plans"

// SubscriptionService 套餐与订阅服务
type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
	loc      *time.Location
	now      func() time.Time
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(subRepo repository.SubscriptionRepository, userRepo repository.UserRepository, loc *time.Location) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		loc:      loc,
		now:      time.Now,
	}
}

// SubscriptionView 订阅及当日剩余额度
type SubscriptionView struct {
	models.UserSubscription
	RemainingToday int  `json:"remaining_today"`
	IsExpired      bool `json:"is_expired"`
}

// ListPlans 上架套餐列表
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var cached []models.SubscriptionPlan
	if hit, err := cache.GetJSON(ctx, publicPlansCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	plans, err := s.subRepo.ListPlans(true)
	if err != nil {
		logger.Errorw("subscription_plans_fetch_failed", "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	_ = cache.SetJSON(ctx, publicPlansCacheKey, plans, 5*time.Minute)
	return plans, nil
}

// Subscribe 订阅套餐：取消旧的 active 记录并创建新记录
func (s *SubscriptionService) Subscribe(userID, planID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	plan, err := s.subRepo.GetPlanByID(planID)
	if err != nil {
		logger.Errorw("subscription_plan_fetch_failed", "plan_id", planID, "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	now := s.now()
	var created *models.UserSubscription
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		subRepo := s.subRepo.WithTx(tx)
		user, err := userRepo.GetByID(userID)
		if err != nil {
			logger.Errorw("subscription_create_user_fetch_failed", "user_id", userID, "error", err)
			return ErrUserFetchFailed
		}
		if user == nil {
			return ErrUserProfileNotFound
		}
		if user.Role != constants.RoleCustomer {
			return ErrCustomerRoleRequired
		}
		if _, err := subRepo.CancelActiveByUser(userID, now); err != nil {
			logger.Errorw("subscription_cancel_previous_failed", "user_id", userID, "error", err)
			return ErrSubscriptionUpdateFailed
		}
		sub := &models.UserSubscription{
			UserID:           userID,
			PlanID:           plan.ID,
			PlanName:         plan.Name,
			TotalCredits:     plan.TotalCredits,
			RemainingCredits: plan.TotalCredits,
			DailyLimit:       plan.DailyLimit,
			PricePaid:        plan.Price,
			Status:           constants.SubscriptionStatusActive,
			ActivatedAt:      now,
			ExpiresAt:        now.AddDate(0, 0, plan.DurationDays),
		}
		if err := subRepo.Create(sub); err != nil {
			logger.Errorw("subscription_create_failed", "user_id", userID, "plan_id", plan.ID, "error", err)
			return ErrSubscriptionUpdateFailed
		}
		if err := userRepo.SetActiveSubscription(userID, &sub.ID); err != nil {
			logger.Errorw("subscription_link_user_failed", "user_id", userID, "subscription_id", sub.ID, "error", err)
			return ErrSubscriptionUpdateFailed
		}
		created = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("subscription_created",
		"user_id", userID,
		"subscription_id", created.ID,
		"plan", created.PlanName,
	)
	return created, nil
}

// Cancel 取消用户自己的订阅
func (s *SubscriptionService) Cancel(userID, subscriptionID uint) (*models.UserSubscription, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	sub, err := s.subRepo.GetByID(subscriptionID)
	if err != nil {
		logger.Errorw("subscription_fetch_failed", "subscription_id", subscriptionID, "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	if sub == nil || sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	if !sub.IsActive() {
		return nil, ErrSubscriptionNotActive
	}
	now := s.now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.subRepo.WithTx(tx).Cancel(sub.ID, now)
		if err != nil {
			logger.Errorw("subscription_cancel_failed", "subscription_id", sub.ID, "error", err)
			return ErrSubscriptionUpdateFailed
		}
		if affected == 0 {
			return ErrSubscriptionNotActive
		}
		user, err := s.userRepo.WithTx(tx).GetByID(userID)
		if err != nil {
			logger.Errorw("subscription_cancel_user_fetch_failed", "user_id", userID, "error", err)
			return ErrUserFetchFailed
		}
		if user != nil && user.ActiveSubscriptionID != nil && *user.ActiveSubscriptionID == sub.ID {
			if err := s.userRepo.WithTx(tx).SetActiveSubscription(userID, nil); err != nil {
				logger.Errorw("subscription_unlink_user_failed", "user_id", userID, "subscription_id", sub.ID, "error", err)
				return ErrSubscriptionUpdateFailed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sub.Status = constants.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	return sub, nil
}

// ListMine 用户订阅历史（按激活时间倒序）
func (s *SubscriptionService) ListMine(userID uint) ([]SubscriptionView, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	subs, err := s.subRepo.ListByUser(userID)
	if err != nil {
		logger.Errorw("subscription_list_failed", "user_id", userID, "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	now := s.now()
	views := make([]SubscriptionView, 0, len(subs))
	for i := range subs {
		views = append(views, s.buildView(&subs[i], now))
	}
	return views, nil
}

// GetActive 当前订阅及当日剩余额度
func (s *SubscriptionService) GetActive(userID uint) (*SubscriptionView, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	sub, err := s.subRepo.GetActiveByUser(userID)
	if err != nil {
		logger.Errorw("subscription_active_fetch_failed", "user_id", userID, "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	if sub == nil {
		return nil, ErrNoActiveSubscription
	}
	view := s.buildView(sub, s.now())
	return &view, nil
}

// ExpireOverdue 将到期的 active 订阅标记为 expired
func (s *SubscriptionService) ExpireOverdue(now time.Time) (int, error) {
	expired, err := s.subRepo.ExpireOverdue(now)
	if err != nil {
		logger.Errorw("subscription_expire_overdue_failed", "error", err)
		return 0, ErrSubscriptionUpdateFailed
	}
	return len(expired), nil
}

func (s *SubscriptionService) buildView(sub *models.UserSubscription, now time.Time) SubscriptionView {
	view := SubscriptionView{UserSubscription: *sub}
	view.IsExpired = sub.IsExpiredAt(now)
	if sub.IsActive() && !view.IsExpired {
		view.RemainingToday = sub.RemainingToday(dayKey(now, s.loc))
	}
	return view
}
