package shared

import (
	"github.com/beanpass/internal/http/response"
	"github.com/beanpass/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 通用错误文案
const (
	MsgUnauthenticated = "The function must be called while authenticated"
	MsgBadRequest      = "Invalid request body"
	MsgForbidden       = "Permission denied"
	MsgInternal        = "Internal error"
	MsgRateLimited     = "Too many requests, please retry later"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get(ContextRequestID); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回可调用错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code string, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"path", requestPath(c),
			"error", err,
		)
	}
	response.CallableError(c, appErr.Code, appErr.Message)
}

func requestPath(c *gin.Context) string {
	if c == nil || c.Request == nil || c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.Path
}
