package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargo-inspection/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository 人员档案数据访问接口
type ProfileRepository interface {
	ListBySite(ctx context.Context, site string) ([]models.Profile, error)
	ListNamesByRole(ctx context.Context, role, site string) ([]string, error)
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUsername(ctx context.Context, username, site string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id uint) error
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建人员档案仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// ListBySite 站点人员档案，site 为空返回全部
func (r *GormProfileRepository) ListBySite(ctx context.Context, site string) ([]models.Profile, error) {
	var profiles []models.Profile
	query := r.db.WithContext(ctx).Model(&models.Profile{})
	if site != "" {
		query = query.Where("site = ?", site)
	}
	err := query.Order("site ASC, full_name ASC").Find(&profiles).Error
	return profiles, err
}

// ListNamesByRole 站点内具备目录角色的在职人员展示名
func (r *GormProfileRepository) ListNamesByRole(ctx context.Context, role, site string) ([]string, error) {
	column := models.RoleColumn(role)
	if column == "" {
		return nil, fmt.Errorf("unknown directory role: %s", role)
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).
		Where("site = ? AND is_active = ? AND "+column+" = ?", site, true, true).
		Order("full_name ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	names := make([]string, 0, len(profiles))
	for i := range profiles {
		names = append(names, profiles[i].DisplayName())
	}
	return names, nil
}

// GetByID 根据 ID 获取
func (r *GormProfileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByUsername 按站点与用户名获取
func (r *GormProfileRepository) GetByUsername(ctx context.Context, username, site string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ? AND site = ?", username, site).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建人员档案
func (r *GormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update 更新人员档案
func (r *GormProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// Delete 删除人员档案
func (r *GormProfileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Profile{}, id).Error
}
