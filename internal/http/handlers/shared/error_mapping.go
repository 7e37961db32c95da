package shared

import (
	"errors"

	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到可调用错误码的映射关系，响应文案取业务错误自身的描述。
type MappedError struct {
	Target error
	Code   string
}

// RespondMappedError 按规则映射业务错误；未命中的错误按 internal 记录日志并返回通用文案。
func RespondMappedError(c *gin.Context, err error, rules []MappedError) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			response.CallableError(c, rule.Code, rule.Target.Error())
			return
		}
	}
	RespondError(c, response.CallableInternal, MsgInternal, err)
}

// ConcatMappedErrors 合并多组映射规则
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// AuthErrorRules 认证与账号相关错误
var AuthErrorRules = []MappedError{
	{Target: service.ErrUnauthenticated, Code: response.CallableUnauthenticated},
	{Target: service.ErrTokenInvalid, Code: response.CallableUnauthenticated},
	{Target: service.ErrInvalidCredentials, Code: response.CallableUnauthenticated},
	{Target: service.ErrUserDisabled, Code: response.CallablePermissionDenied},
	{Target: service.ErrInvalidEmail, Code: response.CallableInvalidArgument},
	{Target: service.ErrEmailExists, Code: response.CallableInvalidArgument},
	{Target: service.ErrWeakPassword, Code: response.CallableInvalidArgument},
	{Target: service.ErrInvalidRole, Code: response.CallableInvalidArgument},
	{Target: service.ErrUserProfileNotFound, Code: response.CallableNotFound},
	{Target: service.ErrPartnerRoleRequired, Code: response.CallablePermissionDenied},
	{Target: service.ErrCustomerRoleRequired, Code: response.CallablePermissionDenied},
}

// SubscriptionErrorRules 套餐与订阅相关错误
var SubscriptionErrorRules = []MappedError{
	{Target: service.ErrPlanNotFound, Code: response.CallableNotFound},
	{Target: service.ErrPlanInactive, Code: response.CallableFailedPrecondition},
	{Target: service.ErrNoActiveSubscription, Code: response.CallableFailedPrecondition},
	{Target: service.ErrSubscriptionNotFound, Code: response.CallableNotFound},
	{Target: service.ErrSubscriptionExpired, Code: response.CallableFailedPrecondition},
	{Target: service.ErrSubscriptionNotActive, Code: response.CallableFailedPrecondition},
	{Target: service.ErrDailyLimitReached, Code: response.CallableFailedPrecondition},
	{Target: service.ErrInsufficientCredits, Code: response.CallableFailedPrecondition},
}

// CafeErrorRules 咖啡馆与商品相关错误
var CafeErrorRules = []MappedError{
	{Target: service.ErrCafeIDRequired, Code: response.CallableInvalidArgument},
	{Target: service.ErrCafeNotFound, Code: response.CallableNotFound},
	{Target: service.ErrCafeInvalid, Code: response.CallableInvalidArgument},
	{Target: service.ErrCafeOwnershipDenied, Code: response.CallablePermissionDenied},
	{Target: service.ErrProductNotFound, Code: response.CallableNotFound},
	{Target: service.ErrProductInvalid, Code: response.CallableInvalidArgument},
}

// QRCodeErrorRules 兑换码签发与核销相关错误
var QRCodeErrorRules = []MappedError{
	{Target: service.ErrQRCodeRequired, Code: response.CallableInvalidArgument},
	{Target: service.ErrQRCodeNotFound, Code: response.CallableNotFound},
	{Target: service.ErrQRCodeMismatch, Code: response.CallableInvalidArgument},
	{Target: service.ErrQRCodeWrongCafe, Code: response.CallablePermissionDenied},
	{Target: service.ErrQRCodeExpired, Code: response.CallableFailedPrecondition},
	{Target: service.ErrQRCodeAlreadyRedeemed, Code: response.CallableFailedPrecondition},
}

// AnalyticsErrorRules 统计查询相关错误
var AnalyticsErrorRules = []MappedError{
	{Target: service.ErrInvalidDate, Code: response.CallableInvalidArgument},
	{Target: service.ErrInvalidMonth, Code: response.CallableInvalidArgument},
}
