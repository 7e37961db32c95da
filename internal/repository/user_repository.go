package repository

import (
	"errors"
	"strings"

	"github.com/beanpass/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	ListIDsByRole(role string) ([]uint, error)
	Create(user *models.User) error
	Update(user *models.User) error
	SetActiveSubscription(userID uint, subscriptionID *uint) error
	IncrementBeansRedeemed(userID uint, delta int64) error
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListIDsByRole 按角色列出用户ID
func (r *GormUserRepository) ListIDsByRole(role string) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.User{}).
		Where("role = ?", role).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// SetActiveSubscription 更新用户当前订阅引用
func (r *GormUserRepository) SetActiveSubscription(userID uint, subscriptionID *uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_subscription_id", subscriptionID).Error
}

// IncrementBeansRedeemed 累加用户兑换杯数
func (r *GormUserRepository) IncrementBeansRedeemed(userID uint, delta int64) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("beans_redeemed", gorm.Expr("beans_redeemed + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
