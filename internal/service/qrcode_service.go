package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/metrics"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"gorm.io/gorm"
)

const maxCodeGenerateAttempts = 3

// QRCodeService 兑换码签发服务
type QRCodeService struct {
	cfg       config.QRConfig
	userRepo  repository.UserRepository
	subRepo   repository.SubscriptionRepository
	cafeRepo  repository.CafeRepository
	tokenRepo repository.RedemptionTokenRepository
	observer  metrics.Observer
	loc       *time.Location
	now       func() time.Time
}

// NewQRCodeService 创建兑换码签发服务
func NewQRCodeService(
	cfg config.QRConfig,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	cafeRepo repository.CafeRepository,
	tokenRepo repository.RedemptionTokenRepository,
	observer metrics.Observer,
	loc *time.Location,
) *QRCodeService {
	return &QRCodeService{
		cfg:       cfg,
		userRepo:  userRepo,
		subRepo:   subRepo,
		cafeRepo:  cafeRepo,
		tokenRepo: tokenRepo,
		observer:  observerOrNop(observer),
		loc:       loc,
		now:       time.Now,
	}
}

// IssueQRCodeInput 签发参数
type IssueQRCodeInput struct {
	UserID    uint
	CafeID    uint
	ProductID *uint
}

// Issue 校验订阅资格并签发一次性兑换码；签发时不扣减额度
func (s *QRCodeService) Issue(input IssueQRCodeInput) (*models.RedemptionToken, error) {
	token, err := s.issue(input)
	s.observer.RecordIssue(outcomeOf(err))
	return token, err
}

func (s *QRCodeService) issue(input IssueQRCodeInput) (*models.RedemptionToken, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	if input.CafeID == 0 {
		return nil, ErrCafeIDRequired
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		logger.Errorw("qr_issue_user_fetch_failed", "user_id", input.UserID, "error", err)
		return nil, ErrUserFetchFailed
	}
	if user == nil {
		return nil, ErrUserProfileNotFound
	}
	if user.ActiveSubscriptionID == nil || *user.ActiveSubscriptionID == 0 {
		return nil, ErrNoActiveSubscription
	}
	sub, err := s.subRepo.GetByID(*user.ActiveSubscriptionID)
	if err != nil {
		logger.Errorw("qr_issue_subscription_fetch_failed", "user_id", input.UserID, "error", err)
		return nil, ErrSubscriptionFetchFailed
	}
	if sub == nil || sub.UserID != user.ID || !sub.IsActive() {
		return nil, ErrNoActiveSubscription
	}

	cafe, err := s.cafeRepo.GetByID(input.CafeID)
	if err != nil {
		logger.Errorw("qr_issue_cafe_fetch_failed", "cafe_id", input.CafeID, "error", err)
		return nil, ErrCafeFetchFailed
	}
	if cafe == nil || !cafe.IsActive {
		return nil, ErrCafeNotFound
	}
	var productID *uint
	if input.ProductID != nil && *input.ProductID > 0 {
		product, err := s.cafeRepo.GetProduct(cafe.ID, *input.ProductID)
		if err != nil {
			logger.Errorw("qr_issue_product_fetch_failed", "cafe_id", cafe.ID, "product_id", *input.ProductID, "error", err)
			return nil, ErrCafeFetchFailed
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotFound
		}
		id := product.ID
		productID = &id
	}

	now := s.now().Truncate(time.Millisecond)
	if sub.IsExpiredAt(now) {
		return nil, ErrSubscriptionExpired
	}
	if sub.RemainingToday(dayKey(now, s.loc)) <= 0 {
		return nil, ErrDailyLimitReached
	}

	token := &models.RedemptionToken{
		UserID:           user.ID,
		CafeID:           cafe.ID,
		ProductID:        productID,
		SubscriptionID:   sub.ID,
		SubscriptionType: sub.PlanName,
		IssuedAt:         now,
		ValidUntil:       now.Add(s.cfg.QRTTL()),
		IsUsed:           false,
	}
	for attempt := 1; ; attempt++ {
		code, err := generateRedemptionCode(s.cfg.NormalizedCodeBytes())
		if err != nil {
			logger.Errorw("qr_issue_code_generate_failed", "error", err)
			return nil, ErrQRCodeCreateFailed
		}
		token.UniqueCode = code
		err = s.tokenRepo.Create(token)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxCodeGenerateAttempts {
			token.ID = 0
			continue
		}
		logger.Errorw("qr_issue_create_failed", "user_id", user.ID, "cafe_id", cafe.ID, "attempt", attempt, "error", err)
		return nil, ErrQRCodeCreateFailed
	}

	logger.Infow("qr_issued",
		"token_id", token.ID,
		"user_id", token.UserID,
		"cafe_id", token.CafeID,
		"valid_until", token.ValidUntil,
	)
	return token, nil
}

// ListMine 顾客的兑换码记录
func (s *QRCodeService) ListMine(userID uint, page, pageSize int) ([]models.RedemptionToken, int64, error) {
	if userID == 0 {
		return nil, 0, ErrUnauthenticated
	}
	tokens, total, err := s.tokenRepo.List(repository.TokenListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, ErrQRCodeFetchFailed
	}
	return tokens, total, nil
}

func generateRedemptionCode(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return constants.RedemptionCodePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
