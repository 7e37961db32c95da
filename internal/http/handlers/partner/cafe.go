package partner

import (
	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/service"

	"github.com/gin-gonic/gin"
)

var cafeErrorRules = shared.ConcatMappedErrors(shared.AuthErrorRules, shared.CafeErrorRules)

// CafeRequest 创建/更新咖啡馆请求
type CafeRequest struct {
	Name         string        `json:"name"`
	Address      string        `json:"address"`
	City         string        `json:"city"`
	DefaultPrice *models.Money `json:"default_price"`
	IsActive     *bool         `json:"is_active"`
}

// ProductRequest 新增商品请求
type ProductRequest struct {
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	SortOrder int          `json:"sort_order"`
}

func (r CafeRequest) toInput() service.CafeInput {
	return service.CafeInput{
		Name:         r.Name,
		Address:      r.Address,
		City:         r.City,
		DefaultPrice: r.DefaultPrice,
		IsActive:     r.IsActive,
	}
}

// ListCafes 我名下的咖啡馆
func (h *Handler) ListCafes(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	cafes, err := h.CafeService.ListMine(partnerID)
	if err != nil {
		shared.RespondMappedError(c, err, cafeErrorRules)
		return
	}
	response.Success(c, cafes)
}

// CreateCafe 创建咖啡馆
func (h *Handler) CreateCafe(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req CafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}
	cafe, err := h.CafeService.Create(partnerID, req.toInput())
	if err != nil {
		shared.RespondMappedError(c, err, cafeErrorRules)
		return
	}
	response.Success(c, cafe)
}

// UpdateCafe 更新自己的咖啡馆
func (h *Handler) UpdateCafe(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	cafeID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}
	cafe, err := h.CafeService.Update(partnerID, cafeID, req.toInput())
	if err != nil {
		shared.RespondMappedError(c, err, cafeErrorRules)
		return
	}
	response.Success(c, cafe)
}

// AddProduct 为自己的咖啡馆新增商品
func (h *Handler) AddProduct(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	cafeID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}
	product, err := h.CafeService.AddProduct(partnerID, cafeID, service.ProductInput{
		Name:      req.Name,
		Price:     req.Price,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		shared.RespondMappedError(c, err, cafeErrorRules)
		return
	}
	response.Success(c, product)
}
