package service

import (
	"strings"
	"time"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"
)

const maxUserAgentLength = 255

// UserLoginLogService 用户登录日志服务
type UserLoginLogService struct {
	repo repository.UserLoginLogRepository
	now  func() time.Time
}

// NewUserLoginLogService 创建用户登录日志服务
func NewUserLoginLogService(repo repository.UserLoginLogRepository) *UserLoginLogService {
	return &UserLoginLogService{repo: repo, now: time.Now}
}

// RecordLoginInput 登录日志记录输入
type RecordLoginInput struct {
	UserID     uint
	Email      string
	Status     string
	FailReason string
	ClientIP   string
	UserAgent  string
	RequestID  string
}

// Record 记录一次登录尝试；成功记录不保留失败原因，失败记录缺省为 internal_error
func (s *UserLoginLogService) Record(input RecordLoginInput) error {
	if s == nil || s.repo == nil {
		return nil
	}

	email := strings.TrimSpace(input.Email)
	if normalized, err := normalizeEmail(email); err == nil {
		email = normalized
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != constants.LoginLogStatusSuccess {
		status = constants.LoginLogStatusFailed
	}

	failReason := strings.ToLower(strings.TrimSpace(input.FailReason))
	if status == constants.LoginLogStatusSuccess {
		failReason = ""
	} else if failReason == "" {
		failReason = constants.LoginLogFailReasonInternalError
	}

	userAgent := strings.TrimSpace(input.UserAgent)
	if len(userAgent) > maxUserAgentLength {
		userAgent = userAgent[:maxUserAgentLength]
	}

	return s.repo.Create(&models.UserLoginLog{
		UserID:     input.UserID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		UserAgent:  userAgent,
		Source:     constants.LoginLogSourceAPI,
		RequestID:  strings.TrimSpace(input.RequestID),
		CreatedAt:  s.now(),
	})
}

// ListByUser 用户侧查询自己的登录日志
func (s *UserLoginLogService) ListByUser(userID uint, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	if userID == 0 {
		return nil, 0, ErrUnauthenticated
	}
	if s == nil || s.repo == nil {
		return []models.UserLoginLog{}, 0, nil
	}
	logs, total, err := s.repo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, ErrUserFetchFailed
	}
	return logs, total, nil
}
