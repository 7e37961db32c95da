package constants

// 用户角色常量
const (
	RoleCustomer = "customer"
	RolePartner  = "partner"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonUserDisabled       = "user_disabled"
	LoginLogFailReasonInternalError      = "internal_error"

	LoginLogSourceAPI = "api"
)

// 订阅状态常量（同一记录只允许 active -> expired / active -> cancelled）
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// 兑换码常量
const (
	RedemptionCodePrefix = "BP"
)

// 统计事件类型常量
const (
	OutboxEventTokenRedeemed = "token.redeemed"
)

// 发件箱状态常量（仅用于查询与展示）
const (
	OutboxStatusPending      = "pending"
	OutboxStatusPublished    = "published"
	OutboxStatusDeadLettered = "dead_lettered"
)

// 队列名称常量
const (
	QueueDefault   = "default"
	QueueAnalytics = "analytics"
)

// 异步任务类型常量
const (
	TaskAnalyticsRedemption = "analytics:redemption"
)

// 日期格式常量
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Casbin 角色前缀
const (
	AuthzRolePrefix = "role:"
)
