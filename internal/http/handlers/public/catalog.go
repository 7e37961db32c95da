package public

import (
	"strconv"
	"strings"

	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/repository"

	"github.com/gin-gonic/gin"
)

var catalogErrorRules = shared.ConcatMappedErrors(shared.SubscriptionErrorRules, shared.CafeErrorRules)

// ListPlans 上架套餐列表
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.SubscriptionService.ListPlans(c.Request.Context())
	if err != nil {
		shared.RespondMappedError(c, err, catalogErrorRules)
		return
	}
	response.Success(c, plans)
}

// ListCafes 营业中的咖啡馆列表
func (h *Handler) ListCafes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	cafes, total, err := h.CafeService.ListPublic(repository.CafeListFilter{
		Page:     page,
		PageSize: pageSize,
		City:     strings.TrimSpace(c.Query("city")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		shared.RespondMappedError(c, err, catalogErrorRules)
		return
	}
	response.SuccessWithPage(c, cafes, response.BuildPagination(page, pageSize, total))
}

// GetCafe 咖啡馆详情（含商品）
func (h *Handler) GetCafe(c *gin.Context) {
	cafeID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	cafe, err := h.CafeService.GetPublic(cafeID)
	if err != nil {
		shared.RespondMappedError(c, err, catalogErrorRules)
		return
	}
	response.Success(c, cafe)
}
