package repository

import (
	"context"
	"errors"

	"github.com/cargo-inspection/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationRepository 月度复核数据访问接口
type VerificationRepository interface {
	Get(ctx context.Context, name, site string) (*models.VerificationRecord, error)
	ListByYear(ctx context.Context, year int, site string) ([]models.VerificationRecord, error)
	Upsert(ctx context.Context, record *models.VerificationRecord) error
	ListYears(ctx context.Context) ([]int, error)
}

// ValidationRepository 年度确认数据访问接口
type ValidationRepository interface {
	Get(ctx context.Context, year int, site string) (*models.ValidationRecord, error)
	Upsert(ctx context.Context, record *models.ValidationRecord) error
}

// GormVerificationRepository GORM 实现
type GormVerificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository 创建月度复核仓库
func NewVerificationRepository(db *gorm.DB) *GormVerificationRepository {
	return &GormVerificationRepository{db: db}
}

// Get 按周期与站点获取，不存在返回 nil
func (r *GormVerificationRepository) Get(ctx context.Context, name, site string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	if err := r.db.WithContext(ctx).Where("name = ? AND site = ?", name, site).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByYear 某站点某年的全部月度复核
func (r *GormVerificationRepository) ListByYear(ctx context.Context, year int, site string) ([]models.VerificationRecord, error) {
	var records []models.VerificationRecord
	err := r.db.WithContext(ctx).
		Where("year = ? AND site = ?", year, site).
		Order("name ASC").
		Find(&records).Error
	return records, err
}

// Upsert 按 (name, site) 幂等写入
func (r *GormVerificationRepository) Upsert(ctx context.Context, record *models.VerificationRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}, {Name: "site"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"year", "month", "verification_status", "verification_date", "verified_by",
			"signature", "signature_digest", "total_outbounds", "updated_at",
		}),
	}).Create(record).Error
}

// ListYears 复核记录涉及的年份
func (r *GormVerificationRepository) ListYears(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).Model(&models.VerificationRecord{}).
		Distinct("year").
		Order("year DESC").
		Pluck("year", &years).Error
	return years, err
}

// GormValidationRepository GORM 实现
type GormValidationRepository struct {
	db *gorm.DB
}

// NewValidationRepository 创建年度确认仓库
func NewValidationRepository(db *gorm.DB) *GormValidationRepository {
	return &GormValidationRepository{db: db}
}

// Get 按年份与站点获取，不存在返回 nil
func (r *GormValidationRepository) Get(ctx context.Context, year int, site string) (*models.ValidationRecord, error) {
	var record models.ValidationRecord
	if err := r.db.WithContext(ctx).Where("year = ? AND site = ?", year, site).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Upsert 按 (year, site) 幂等写入
func (r *GormValidationRepository) Upsert(ctx context.Context, record *models.ValidationRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}, {Name: "site"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"validation_status", "validation_date", "validated_by",
			"signature", "signature_digest", "updated_at",
		}),
	}).Create(record).Error
}
