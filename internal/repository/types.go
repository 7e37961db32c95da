package repository

// CafeListFilter 查询咖啡馆列表的过滤条件
type CafeListFilter struct {
	Page       int
	PageSize   int
	City       string
	Search     string
	PartnerID  uint
	OnlyActive bool
}

// TokenListFilter 查询兑换码列表的过滤条件
type TokenListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	CafeID   uint
	OnlyUsed bool
}
