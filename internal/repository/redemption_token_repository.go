package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/beanpass/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedemptionTokenRepository 兑换码数据访问接口
type RedemptionTokenRepository interface {
	Create(token *models.RedemptionToken) error
	GetByID(id uint) (*models.RedemptionToken, error)
	GetByCode(code string) (*models.RedemptionToken, error)
	GetByCodeForUpdate(code string) (*models.RedemptionToken, error)
	MarkUsed(id, partnerID uint, usedAt time.Time) (int64, error)
	List(filter TokenListFilter) ([]models.RedemptionToken, int64, error)
	ListFirstRedemptions(userID, cafeID uint, limit int) ([]models.RedemptionToken, error)
	WithTx(tx *gorm.DB) *GormRedemptionTokenRepository
}

// GormRedemptionTokenRepository GORM 实现
type GormRedemptionTokenRepository struct {
	db *gorm.DB
}

// NewRedemptionTokenRepository 创建兑换码仓库
func NewRedemptionTokenRepository(db *gorm.DB) *GormRedemptionTokenRepository {
	return &GormRedemptionTokenRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionTokenRepository) WithTx(tx *gorm.DB) *GormRedemptionTokenRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionTokenRepository{db: tx}
}

// Create 创建兑换码
func (r *GormRedemptionTokenRepository) Create(token *models.RedemptionToken) error {
	return r.db.Create(token).Error
}

// GetByID 根据 ID 查询兑换码
func (r *GormRedemptionTokenRepository) GetByID(id uint) (*models.RedemptionToken, error) {
	if id == 0 {
		return nil, nil
	}
	var token models.RedemptionToken
	if err := r.db.First(&token, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// GetByCode 根据兑换码查询
func (r *GormRedemptionTokenRepository) GetByCode(code string) (*models.RedemptionToken, error) {
	return r.getByCode(r.db, code)
}

// GetByCodeForUpdate 根据兑换码加锁查询
func (r *GormRedemptionTokenRepository) GetByCodeForUpdate(code string) (*models.RedemptionToken, error) {
	return r.getByCode(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func (r *GormRedemptionTokenRepository) getByCode(db *gorm.DB, code string) (*models.RedemptionToken, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var token models.RedemptionToken
	if err := db.Where("unique_code = ?", code).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// MarkUsed 条件更新 is_used=false -> true，返回影响行数（0 表示已被核销）
func (r *GormRedemptionTokenRepository) MarkUsed(id, partnerID uint, usedAt time.Time) (int64, error) {
	result := r.db.Model(&models.RedemptionToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{
			"is_used":            true,
			"used_at":            usedAt,
			"used_by_partner_id": partnerID,
			"updated_at":         usedAt,
		})
	return result.RowsAffected, result.Error
}

// List 兑换码列表
func (r *GormRedemptionTokenRepository) List(filter TokenListFilter) ([]models.RedemptionToken, int64, error) {
	query := r.db.Model(&models.RedemptionToken{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CafeID > 0 {
		query = query.Where("cafe_id = ?", filter.CafeID)
	}
	if filter.OnlyUsed {
		query = query.Where("is_used = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var tokens []models.RedemptionToken
	if err := query.Order("issued_at DESC, id DESC").Find(&tokens).Error; err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

// ListFirstRedemptions 用户在咖啡馆最早的已核销记录，按核销时间、ID 升序
func (r *GormRedemptionTokenRepository) ListFirstRedemptions(userID, cafeID uint, limit int) ([]models.RedemptionToken, error) {
	if limit <= 0 {
		limit = 2
	}
	var tokens []models.RedemptionToken
	if err := r.db.Where("user_id = ? AND cafe_id = ? AND is_used = ?", userID, cafeID, true).
		Order("used_at ASC, id ASC").
		Limit(limit).
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}
