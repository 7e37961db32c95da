package service

import (
	"strings"

	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/shopspring/decimal"
)

// CafeService 咖啡馆服务
type CafeService struct {
	cafeRepo repository.CafeRepository
}

// NewCafeService 创建咖啡馆服务
func NewCafeService(cafeRepo repository.CafeRepository) *CafeService {
	return &CafeService{cafeRepo: cafeRepo}
}

// CafeInput 创建/更新咖啡馆参数
type CafeInput struct {
	Name         string
	Address      string
	City         string
	DefaultPrice *models.Money
	IsActive     *bool
}

// ProductInput 新增商品参数
type ProductInput struct {
	Name      string
	Price     models.Money
	SortOrder int
}

// ListPublic 公开咖啡馆列表（仅营业中）
func (s *CafeService) ListPublic(filter repository.CafeListFilter) ([]models.Cafe, int64, error) {
	filter.OnlyActive = true
	cafes, total, err := s.cafeRepo.List(filter)
	if err != nil {
		return nil, 0, ErrCafeFetchFailed
	}
	return cafes, total, nil
}

// GetPublic 公开咖啡馆详情（含上架商品）
func (s *CafeService) GetPublic(id uint) (*models.Cafe, error) {
	cafe, err := s.cafeRepo.GetByIDWithProducts(id)
	if err != nil {
		return nil, ErrCafeFetchFailed
	}
	if cafe == nil || !cafe.IsActive {
		return nil, ErrCafeNotFound
	}
	return cafe, nil
}

// ListMine 合作方名下咖啡馆
func (s *CafeService) ListMine(partnerID uint) ([]models.Cafe, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	cafes, err := s.cafeRepo.ListByPartner(partnerID)
	if err != nil {
		return nil, ErrCafeFetchFailed
	}
	return cafes, nil
}

// Create 合作方创建咖啡馆
func (s *CafeService) Create(partnerID uint, input CafeInput) (*models.Cafe, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || !validPrice(input.DefaultPrice) {
		return nil, ErrCafeInvalid
	}
	cafe := &models.Cafe{
		PartnerID: partnerID,
		Name:      name,
		Address:   strings.TrimSpace(input.Address),
		City:      strings.TrimSpace(input.City),
		IsActive:  true,
	}
	if input.DefaultPrice != nil {
		cafe.DefaultPrice = *input.DefaultPrice
	}
	if input.IsActive != nil {
		cafe.IsActive = *input.IsActive
	}
	if err := s.cafeRepo.Create(cafe); err != nil {
		return nil, ErrCafeSaveFailed
	}
	return cafe, nil
}

// Update 合作方更新咖啡馆
func (s *CafeService) Update(partnerID, cafeID uint, input CafeInput) (*models.Cafe, error) {
	cafe, err := s.RequireOwnedCafe(partnerID, cafeID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		cafe.Name = name
	}
	if address := strings.TrimSpace(input.Address); address != "" {
		cafe.Address = address
	}
	if city := strings.TrimSpace(input.City); city != "" {
		cafe.City = city
	}
	if !validPrice(input.DefaultPrice) {
		return nil, ErrCafeInvalid
	}
	if input.DefaultPrice != nil {
		cafe.DefaultPrice = *input.DefaultPrice
	}
	if input.IsActive != nil {
		cafe.IsActive = *input.IsActive
	}
	if err := s.cafeRepo.Update(cafe); err != nil {
		return nil, ErrCafeSaveFailed
	}
	return cafe, nil
}

// AddProduct 合作方为咖啡馆新增商品
func (s *CafeService) AddProduct(partnerID, cafeID uint, input ProductInput) (*models.Product, error) {
	cafe, err := s.RequireOwnedCafe(partnerID, cafeID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price.Decimal.LessThan(decimal.Zero) {
		return nil, ErrProductInvalid
	}
	product := &models.Product{
		CafeID:    cafe.ID,
		Name:      name,
		Price:     input.Price,
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if err := s.cafeRepo.CreateProduct(product); err != nil {
		return nil, ErrCafeSaveFailed
	}
	return product, nil
}

// RequireOwnedCafe 校验咖啡馆归属
func (s *CafeService) RequireOwnedCafe(partnerID, cafeID uint) (*models.Cafe, error) {
	if partnerID == 0 {
		return nil, ErrUnauthenticated
	}
	if cafeID == 0 {
		return nil, ErrCafeIDRequired
	}
	cafe, err := s.cafeRepo.GetByID(cafeID)
	if err != nil {
		return nil, ErrCafeFetchFailed
	}
	if cafe == nil {
		return nil, ErrCafeNotFound
	}
	if cafe.PartnerID != partnerID {
		return nil, ErrCafeOwnershipDenied
	}
	return cafe, nil
}

func validPrice(price *models.Money) bool {
	return price == nil || !price.Decimal.LessThan(decimal.Zero)
}
