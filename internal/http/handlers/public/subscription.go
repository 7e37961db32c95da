package public

import (
	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"

	"github.com/gin-gonic/gin"
)

var subscriptionErrorRules = shared.ConcatMappedErrors(shared.AuthErrorRules, shared.SubscriptionErrorRules)

// SubscribeRequest 订阅请求
type SubscribeRequest struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

// ListSubscriptions 我的订阅记录（按激活时间倒序）
func (h *Handler) ListSubscriptions(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	views, err := h.SubscriptionService.ListMine(userID)
	if err != nil {
		shared.RespondMappedError(c, err, subscriptionErrorRules)
		return
	}
	response.Success(c, views)
}

// GetActiveSubscription 当前有效订阅及今日剩余次数
func (h *Handler) GetActiveSubscription(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	view, err := h.SubscriptionService.GetActive(userID)
	if err != nil {
		shared.RespondMappedError(c, err, subscriptionErrorRules)
		return
	}
	response.Success(c, view)
}

// Subscribe 订阅套餐，原有效订阅会被取消
func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}
	sub, err := h.SubscriptionService.Subscribe(userID, req.PlanID)
	if err != nil {
		shared.RespondMappedError(c, err, subscriptionErrorRules)
		return
	}
	response.Success(c, sub)
}

// CancelSubscription 取消自己的订阅
func (h *Handler) CancelSubscription(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	sub, err := h.SubscriptionService.Cancel(userID, subscriptionID)
	if err != nil {
		shared.RespondMappedError(c, err, subscriptionErrorRules)
		return
	}
	response.Success(c, sub)
}
