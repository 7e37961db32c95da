package public

import "github.com/beanpass/internal/provider"

// Handler 顾客侧/公开接口处理器入口
// 说明：该处理器用于游客、注册登录与顾客 API。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
