package repository

import (
	"errors"
	"strings"

	"github.com/beanpass/internal/models"

	"gorm.io/gorm"
)

// CafeRepository 咖啡馆与商品数据访问接口
type CafeRepository interface {
	Create(cafe *models.Cafe) error
	Update(cafe *models.Cafe) error
	GetByID(id uint) (*models.Cafe, error)
	GetByIDWithProducts(id uint) (*models.Cafe, error)
	List(filter CafeListFilter) ([]models.Cafe, int64, error)
	ListByPartner(partnerID uint) ([]models.Cafe, error)
	CreateProduct(product *models.Product) error
	GetProduct(cafeID, productID uint) (*models.Product, error)
	UpdateLastDailyStats(partnerID uint, stats models.JSON, day string) (int64, error)
	WithTx(tx *gorm.DB) *GormCafeRepository
}

// GormCafeRepository GORM 实现
type GormCafeRepository struct {
	db *gorm.DB
}

// NewCafeRepository 创建咖啡馆仓库
func NewCafeRepository(db *gorm.DB) *GormCafeRepository {
	return &GormCafeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCafeRepository) WithTx(tx *gorm.DB) *GormCafeRepository {
	if tx == nil {
		return r
	}
	return &GormCafeRepository{db: tx}
}

// Create 创建咖啡馆
func (r *GormCafeRepository) Create(cafe *models.Cafe) error {
	return r.db.Create(cafe).Error
}

// Update 更新咖啡馆基础信息
func (r *GormCafeRepository) Update(cafe *models.Cafe) error {
	return r.db.Omit("Products").Save(cafe).Error
}

// GetByID 获取咖啡馆
func (r *GormCafeRepository) GetByID(id uint) (*models.Cafe, error) {
	return r.get(r.db, id)
}

// GetByIDWithProducts 获取咖啡馆及上架商品
func (r *GormCafeRepository) GetByIDWithProducts(id uint) (*models.Cafe, error) {
	return r.get(r.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("sort_order DESC, id ASC")
	}), id)
}

func (r *GormCafeRepository) get(db *gorm.DB, id uint) (*models.Cafe, error) {
	if id == 0 {
		return nil, nil
	}
	var cafe models.Cafe
	if err := db.Where("id = ?", id).First(&cafe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cafe, nil
}

// List 咖啡馆列表
func (r *GormCafeRepository) List(filter CafeListFilter) ([]models.Cafe, int64, error) {
	query := r.db.Model(&models.Cafe{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.PartnerID > 0 {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("city = ?", city)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "address"})
		query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var cafes []models.Cafe
	if err := query.Order("id ASC").Find(&cafes).Error; err != nil {
		return nil, 0, err
	}
	return cafes, total, nil
}

// ListByPartner 合作方名下全部咖啡馆（含商品）
func (r *GormCafeRepository) ListByPartner(partnerID uint) ([]models.Cafe, error) {
	var cafes []models.Cafe
	if err := r.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order DESC, id ASC")
	}).Where("partner_id = ?", partnerID).Order("id ASC").Find(&cafes).Error; err != nil {
		return nil, err
	}
	return cafes, nil
}

// CreateProduct 创建商品
func (r *GormCafeRepository) CreateProduct(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetProduct 获取指定咖啡馆的商品
func (r *GormCafeRepository) GetProduct(cafeID, productID uint) (*models.Product, error) {
	if cafeID == 0 || productID == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Where("id = ? AND cafe_id = ?", productID, cafeID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// UpdateLastDailyStats 写入合作方全部咖啡馆的昨日统计快照
func (r *GormCafeRepository) UpdateLastDailyStats(partnerID uint, stats models.JSON, day string) (int64, error) {
	result := r.db.Model(&models.Cafe{}).
		Where("partner_id = ?", partnerID).
		Updates(map[string]interface{}{
			"last_daily_stats":      stats,
			"last_daily_stats_date": day,
		})
	return result.RowsAffected, result.Error
}
