package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/metrics"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedemptionSuccessMessage 核销成功提示
const RedemptionSuccessMessage = "Coffee redeemed successfully"

// RedemptionService 兑换码核销服务
type RedemptionService struct {
	cafeRepo   repository.CafeRepository
	tokenRepo  repository.RedemptionTokenRepository
	subRepo    repository.SubscriptionRepository
	userRepo   repository.UserRepository
	outboxRepo repository.OutboxRepository
	observer   metrics.Observer
	loc        *time.Location
	now        func() time.Time
}

// NewRedemptionService 创建核销服务
func NewRedemptionService(
	cafeRepo repository.CafeRepository,
	tokenRepo repository.RedemptionTokenRepository,
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	observer metrics.Observer,
	loc *time.Location,
) *RedemptionService {
	return &RedemptionService{
		cafeRepo:   cafeRepo,
		tokenRepo:  tokenRepo,
		subRepo:    subRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		observer:   observerOrNop(observer),
		loc:        loc,
		now:        time.Now,
	}
}

// RedeemInput 核销参数
type RedeemInput struct {
	PartnerID  uint
	CafeID     uint
	UniqueCode string
	// ValidUntil 为扫码得到的过期时间，非空时必须与签发记录一致
	ValidUntil *time.Time
}

// RedemptionResult 核销结果
type RedemptionResult struct {
	Success          bool                    `json:"success"`
	Message          string                  `json:"message"`
	Token            *models.RedemptionToken `json:"-"`
	RemainingCredits int                     `json:"-"`
}

// RedemptionEventPayload 发件箱事件内容
type RedemptionEventPayload struct {
	TokenID   uint      `json:"token_id"`
	PartnerID uint      `json:"partner_id"`
	CafeID    uint      `json:"cafe_id"`
	UserID    uint      `json:"user_id"`
	UsedAt    time.Time `json:"used_at"`
}

// Redeem 在单个事务内完成：兑换码置为已用、扣减额度、累加用户杯数、写入统计事件
func (s *RedemptionService) Redeem(ctx context.Context, input RedeemInput) (*RedemptionResult, error) {
	started := time.Now()
	result, err := s.redeem(ctx, input)
	s.observer.RecordRedeem(outcomeOf(err), time.Since(started))
	return result, err
}

func (s *RedemptionService) redeem(ctx context.Context, input RedeemInput) (*RedemptionResult, error) {
	if input.PartnerID == 0 {
		return nil, ErrUnauthenticated
	}
	if input.CafeID == 0 {
		return nil, ErrCafeIDRequired
	}
	if input.UniqueCode == "" {
		return nil, ErrQRCodeRequired
	}

	// 归属校验在查询兑换码之前完成
	cafe, err := s.cafeRepo.GetByID(input.CafeID)
	if err != nil {
		logger.Errorw("qr_redeem_cafe_fetch_failed", "cafe_id", input.CafeID, "error", err)
		return nil, ErrCafeFetchFailed
	}
	if cafe == nil {
		return nil, ErrCafeNotFound
	}
	if cafe.PartnerID != input.PartnerID {
		return nil, ErrCafeOwnershipDenied
	}

	var (
		redeemed  *models.RedemptionToken
		remaining int
	)
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokenRepo := s.tokenRepo.WithTx(tx)
		token, err := tokenRepo.GetByCodeForUpdate(input.UniqueCode)
		if err != nil {
			logger.Errorw("qr_redeem_token_fetch_failed", "error", err)
			return ErrQRCodeFetchFailed
		}
		if token == nil {
			return ErrQRCodeNotFound
		}
		if token.CafeID != cafe.ID {
			return ErrQRCodeWrongCafe
		}
		if input.ValidUntil != nil && !sameInstant(*input.ValidUntil, token.ValidUntil) {
			return ErrQRCodeMismatch
		}
		now := s.now()
		if token.ValidUntil.Before(now) {
			return ErrQRCodeExpired
		}
		if token.IsUsed {
			return ErrQRCodeAlreadyRedeemed
		}

		affected, err := tokenRepo.MarkUsed(token.ID, input.PartnerID, now)
		if err != nil {
			logger.Errorw("qr_redeem_mark_used_failed", "token_id", token.ID, "error", err)
			return ErrRedeemFailed
		}
		if affected != 1 {
			return ErrQRCodeAlreadyRedeemed
		}

		subRepo := s.subRepo.WithTx(tx)
		sub, err := subRepo.GetByIDForUpdate(token.SubscriptionID)
		if err != nil {
			logger.Errorw("qr_redeem_subscription_fetch_failed", "subscription_id", token.SubscriptionID, "error", err)
			return ErrSubscriptionFetchFailed
		}
		// 已取消的订阅不再扣减；到期但尚未被日终任务标记的记录仍可兑换
		if !sub.IsActive() {
			return ErrSubscriptionNotActive
		}
		if sub.RemainingCredits <= 0 {
			return ErrInsufficientCredits
		}
		day := dayKey(now, s.loc)
		if sub.RemainingToday(day) <= 0 {
			return ErrDailyLimitReached
		}
		affected, err = subRepo.ConsumeCredit(sub.ID, day, sub.UsedOn(day)+1)
		if err != nil {
			logger.Errorw("qr_redeem_credit_failed", "subscription_id", sub.ID, "error", err)
			return ErrSubscriptionUpdateFailed
		}
		if affected != 1 {
			return ErrDailyLimitReached
		}
		if err := s.userRepo.WithTx(tx).IncrementBeansRedeemed(token.UserID, 1); err != nil {
			logger.Errorw("qr_redeem_beans_failed", "user_id", token.UserID, "error", err)
			return ErrRedeemFailed
		}

		before := *token
		usedAt := now
		partnerID := input.PartnerID
		token.IsUsed = true
		token.UsedAt = &usedAt
		token.UsedByPartnerID = &partnerID

		if IsConsumedTransition(&before, token) {
			if err := s.enqueueRedeemedEvent(ctx, tx, token, now); err != nil {
				logger.Errorw("qr_redeem_outbox_enqueue_failed", "token_id", token.ID, "error", err)
				return ErrRedeemFailed
			}
		}

		redeemed = token
		remaining = sub.RemainingCredits - 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("qr_redeemed",
		"token_id", redeemed.ID,
		"partner_id", input.PartnerID,
		"cafe_id", redeemed.CafeID,
		"user_id", redeemed.UserID,
		"remaining_credits", remaining,
	)
	return &RedemptionResult{
		Success:          true,
		Message:          RedemptionSuccessMessage,
		Token:            redeemed,
		RemainingCredits: remaining,
	}, nil
}

func (s *RedemptionService) enqueueRedeemedEvent(ctx context.Context, tx *gorm.DB, token *models.RedemptionToken, now time.Time) error {
	payload, err := json.Marshal(RedemptionEventPayload{
		TokenID:   token.ID,
		PartnerID: *token.UsedByPartnerID,
		CafeID:    token.CafeID,
		UserID:    token.UserID,
		UsedAt:    *token.UsedAt,
	})
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Enqueue(ctx, &models.AnalyticsOutbox{
		EventID:   uuid.NewString(),
		EventType: constants.OutboxEventTokenRedeemed,
		TokenID:   token.ID,
		Payload:   string(payload),
		CreatedAt: now,
	})
}

// sameInstant 按毫秒精度比较，兼容客户端与数据库的时间精度差异
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}
