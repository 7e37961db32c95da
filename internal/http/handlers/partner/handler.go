package partner

import "github.com/beanpass/internal/provider"

// Handler 合作方接口处理器入口
// 说明：路由层已完成 JWT 鉴权与 partner 角色授权，处理器只做咖啡馆归属校验。
type Handler struct {
	*provider.Container
}

// New 创建合作方处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
