package public

import (
	"strconv"

	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/service"

	"github.com/gin-gonic/gin"
)

var issueErrorRules = shared.ConcatMappedErrors(
	shared.AuthErrorRules,
	shared.SubscriptionErrorRules,
	shared.CafeErrorRules,
)

// IssueQRCodeRequest 签发兑换码请求
type IssueQRCodeRequest struct {
	CafeID    shared.CallableID  `json:"cafeId"`
	ProductID *shared.CallableID `json:"productId"`
}

// IssuedQRCode 签发结果，时间字段为毫秒时间戳
type IssuedQRCode struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	CafeID           string  `json:"cafeId"`
	ProductID        *string `json:"productId,omitempty"`
	Timestamp        int64   `json:"timestamp"`
	ValidUntil       int64   `json:"validUntil"`
	SubscriptionType string  `json:"subscriptionType"`
	IsUsed           bool    `json:"isUsed"`
	UniqueCode       string  `json:"uniqueCode"`
}

// IssueQRCode 为当前顾客签发一次性兑换码
func (h *Handler) IssueQRCode(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req IssueQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}

	token, err := h.QRCodeService.Issue(service.IssueQRCodeInput{
		UserID:    userID,
		CafeID:    uint(req.CafeID),
		ProductID: req.ProductID.Ptr(),
	})
	if err != nil {
		shared.RespondMappedError(c, err, issueErrorRules)
		return
	}
	response.Success(c, toIssuedQRCode(token))
}

// ListQRTokens 我的兑换码记录
func (h *Handler) ListQRTokens(c *gin.Context) {
	userID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	tokens, total, err := h.QRCodeService.ListMine(userID, page, pageSize)
	if err != nil {
		shared.RespondMappedError(c, err, issueErrorRules)
		return
	}
	items := make([]IssuedQRCode, 0, len(tokens))
	for i := range tokens {
		items = append(items, toIssuedQRCode(&tokens[i]))
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

func toIssuedQRCode(token *models.RedemptionToken) IssuedQRCode {
	issued := IssuedQRCode{
		ID:               shared.FormatID(token.ID),
		UserID:           shared.FormatID(token.UserID),
		CafeID:           shared.FormatID(token.CafeID),
		Timestamp:        token.IssuedAt.UnixMilli(),
		ValidUntil:       token.ValidUntil.UnixMilli(),
		SubscriptionType: token.SubscriptionType,
		IsUsed:           token.IsUsed,
		UniqueCode:       token.UniqueCode,
	}
	if token.ProductID != nil {
		productID := shared.FormatID(*token.ProductID)
		issued.ProductID = &productID
	}
	return issued
}
