package partner

import (
	"github.com/beanpass/internal/http/handlers/shared"
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/service"

	"github.com/gin-gonic/gin"
)

var redeemErrorRules = shared.ConcatMappedErrors(
	shared.AuthErrorRules,
	shared.CafeErrorRules,
	shared.QRCodeErrorRules,
	shared.SubscriptionErrorRules,
)

// QRCodeData 扫码得到的兑换码内容
type QRCodeData struct {
	CafeID     shared.CallableID   `json:"cafeId"`
	UniqueCode string              `json:"uniqueCode"`
	ValidUntil shared.CallableTime `json:"validUntil"`
}

// RedeemRequest 核销请求
type RedeemRequest struct {
	QRCodeData *QRCodeData `json:"qrCodeData"`
}

// RedeemQRCode 合作方核销兑换码
func (h *Handler) RedeemQRCode(c *gin.Context) {
	partnerID, ok := shared.GetUserID(c)
	if !ok {
		return
	}
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CallableInvalidArgument, shared.MsgBadRequest, nil)
		return
	}
	if req.QRCodeData == nil {
		response.CallableError(c, response.CallableInvalidArgument, service.ErrQRCodeRequired.Error())
		return
	}

	result, err := h.RedemptionService.Redeem(c.Request.Context(), service.RedeemInput{
		PartnerID:  partnerID,
		CafeID:     uint(req.QRCodeData.CafeID),
		UniqueCode: req.QRCodeData.UniqueCode,
		ValidUntil: req.QRCodeData.ValidUntil.Ptr(),
	})
	if err != nil {
		shared.RespondMappedError(c, err, redeemErrorRules)
		return
	}
	response.Success(c, gin.H{
		"success": result.Success,
		"message": result.Message,
	})
}
