package shared

import (
	"strconv"
	"strings"

	"github.com/beanpass/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
	ContextRequestID   = "request_id"
)

// GetContextUint 从上下文读取 uint 值，缺失时返回 unauthenticated。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CallableUnauthenticated, MsgUnauthenticated, nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CallableUnauthenticated, MsgUnauthenticated, nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CallableUnauthenticated, MsgUnauthenticated, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CallableUnauthenticated, MsgUnauthenticated, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CallableInternal, MsgInternal, nil)
		return 0, false
	}
}

// GetUserID 读取当前登录用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextUserIDKey)
}

// GetUserRole 读取当前登录用户角色
func GetUserRole(c *gin.Context) string {
	value, ok := c.Get(ContextUserRoleKey)
	if !ok {
		return ""
	}
	role, _ := value.(string)
	return role
}

// ParseUintParam 解析路径参数中的正整数 ID
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CallableInvalidArgument, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
