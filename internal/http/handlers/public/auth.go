package public

import (
	"errors"
	"strconv"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 用户注册（顾客或合作方）
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}

	result, err := h.UserAuthService.Register(service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Role:        req.Role,
	})
	if err != nil {
		shared.RespondMappedError(c, err, shared.AuthErrorRules)
		return
	}
	response.Success(c, authPayload(result))
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordLogin(c, req.Email, 0, constants.LoginLogStatusFailed, constants.LoginLogFailReasonBadRequest)
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}

	result, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		h.recordLogin(c, req.Email, 0, constants.LoginLogStatusFailed, loginFailReason(err))
		shared.RespondMappedError(c, err, shared.AuthErrorRules)
		return
	}
	h.recordLogin(c, req.Email, result.User.ID, constants.LoginLogStatusSuccess, "")
	response.Success(c, authPayload(result))
}

// ListLoginLogs 当前用户的登录记录
func (h *Handler) ListLoginLogs(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	logs, total, err := h.LoginLogService.ListByUser(userID, page, pageSize)
	if err != nil {
		shared.RespondMappedError(c, err, shared.AuthErrorRules)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

// recordLogin 登录日志写入失败不影响登录结果
func (h *Handler) recordLogin(c *gin.Context, email string, userID uint, status, failReason string) {
	if h.LoginLogService == nil {
		return
	}
	requestID, _ := c.Get(shared.ContextRequestID)
	requestIDText, _ := requestID.(string)
	err := h.LoginLogService.Record(service.RecordLoginInput{
		UserID:     userID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		RequestID:  requestIDText,
	})
	if err != nil {
		shared.RequestLog(c).Warnw("login_log_record_failed", "error", err)
	}
}

func loginFailReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return constants.LoginLogFailReasonInvalidCredentials
	case errors.Is(err, service.ErrUserDisabled):
		return constants.LoginLogFailReasonUserDisabled
	default:
		return constants.LoginLogFailReasonInternalError
	}
}

// GetCurrentUser 当前登录用户资料
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUser(userID)
	if err != nil {
		shared.RespondMappedError(c, err, shared.AuthErrorRules)
		return
	}
	response.Success(c, userProfile(user))
}

func authPayload(result *service.AuthResult) gin.H {
	return gin.H{
		"user":       userProfile(result.User),
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	}
}

func userProfile(user *models.User) gin.H {
	return gin.H{
		"id":                     user.ID,
		"email":                  user.Email,
		"display_name":           user.DisplayName,
		"phone":                  user.Phone,
		"role":                   user.Role,
		"active_subscription_id": user.ActiveSubscriptionID,
		"beans_redeemed":         user.BeansRedeemed,
		"last_login_at":          user.LastLoginAt,
	}
}
