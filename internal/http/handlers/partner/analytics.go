package partner

import (
	"strings"

	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"

	"github.com/gin-gonic/gin"
)

var analyticsErrorRules = shared.ConcatMappedErrors(shared.AuthErrorRules, shared.AnalyticsErrorRules)

// GetDailyAnalytics 日统计，date 为空时取今天
func (h *Handler) GetDailyAnalytics(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	report, err := h.AnalyticsService.GetDaily(partnerID, strings.TrimSpace(c.Query("date")))
	if err != nil {
		shared.RespondMappedError(c, err, analyticsErrorRules)
		return
	}
	response.Success(c, report)
}

// GetMonthlyAnalytics 月统计，month 为空时取本月
func (h *Handler) GetMonthlyAnalytics(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	report, err := h.AnalyticsService.GetMonthly(partnerID, strings.TrimSpace(c.Query("month")))
	if err != nil {
		shared.RespondMappedError(c, err, analyticsErrorRules)
		return
	}
	response.Success(c, report)
}

// GetWeeklyAnalytics 最近一次滚动汇总的周报
func (h *Handler) GetWeeklyAnalytics(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	summary, err := h.AnalyticsService.GetWeekly(partnerID)
	if err != nil {
		shared.RespondMappedError(c, err, analyticsErrorRules)
		return
	}
	response.Success(c, summary)
}
