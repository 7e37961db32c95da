package service

import "errors"

// 认证与用户
var (
	ErrUnauthenticated      = errors.New("The function must be called while authenticated")
	ErrInvalidCredentials   = errors.New("Invalid email or password")
	ErrInvalidEmail         = errors.New("Invalid email address")
	ErrEmailExists          = errors.New("Email is already registered")
	ErrWeakPassword         = errors.New("Password does not meet the password policy")
	ErrInvalidRole          = errors.New("Role must be customer or partner")
	ErrUserDisabled         = errors.New("Account is disabled")
	ErrUserProfileNotFound  = errors.New("User profile not found")
	ErrUserFetchFailed      = errors.New("Failed to load user profile")
	ErrUserCreateFailed     = errors.New("Failed to create user")
	ErrTokenInvalid         = errors.New("Invalid or expired token")
	ErrPartnerRoleRequired  = errors.New("Only partners can perform this action")
	ErrCustomerRoleRequired = errors.New("Only customers can perform this action")
)

// 套餐与订阅
var (
	ErrPlanNotFound             = errors.New("Subscription plan not found")
	ErrPlanInactive             = errors.New("Subscription plan is not available")
	ErrNoActiveSubscription     = errors.New("No active subscription found")
	ErrSubscriptionNotFound     = errors.New("Subscription not found")
	ErrSubscriptionExpired      = errors.New("Subscription has expired")
	ErrSubscriptionNotActive    = errors.New("Subscription is not active")
	ErrDailyLimitReached        = errors.New("Daily redemption limit reached")
	ErrInsufficientCredits      = errors.New("No remaining credits on subscription")
	ErrSubscriptionFetchFailed  = errors.New("Failed to load subscription")
	ErrSubscriptionUpdateFailed = errors.New("Failed to update subscription")
)

// 咖啡馆
var (
	ErrCafeIDRequired      = errors.New("Cafe ID is required")
	ErrCafeNotFound        = errors.New("Cafe not found")
	ErrCafeInvalid         = errors.New("Cafe name is required")
	ErrCafeOwnershipDenied = errors.New("You are not the owner of this cafe")
	ErrProductNotFound     = errors.New("Product not found")
	ErrProductInvalid      = errors.New("Product name and a non-negative price are required")
	ErrCafeFetchFailed     = errors.New("Failed to load cafe")
	ErrCafeSaveFailed      = errors.New("Failed to save cafe")
)

// 兑换码
var (
	ErrQRCodeRequired        = errors.New("QR code data is required")
	ErrQRCodeNotFound        = errors.New("QR code not found")
	ErrQRCodeMismatch        = errors.New("QR code data does not match")
	ErrQRCodeWrongCafe       = errors.New("QR code was issued for a different cafe")
	ErrQRCodeExpired         = errors.New("QR code has expired")
	ErrQRCodeAlreadyRedeemed = errors.New("QR code has already been redeemed")
	ErrQRCodeCreateFailed    = errors.New("Failed to generate QR code")
	ErrQRCodeFetchFailed     = errors.New("Failed to load QR code")
	ErrRedeemFailed          = errors.New("Failed to redeem QR code")
)

// 统计
var (
	ErrInvalidDate           = errors.New("Date must be formatted as YYYY-MM-DD")
	ErrInvalidMonth          = errors.New("Month must be formatted as YYYY-MM")
	ErrAnalyticsFetchFailed  = errors.New("Failed to load analytics")
	ErrTokenNotConsumed      = errors.New("token is not redeemed")
	ErrAnalyticsApplyFailed  = errors.New("failed to apply redemption analytics")
	ErrOutboxPublisherAbsent = errors.New("outbox publisher is not configured")
)
