package models

import (
	"strings"
	"time"

	"github.com/cargo-inspection/internal/constants"
)

// Profile 人员档案（装车/合单/复核/检查人员下拉来源）
type Profile struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Username    string    `gorm:"size:128;not null;uniqueIndex:idx_profile_site_user" json:"username"`
	Site        string    `gorm:"size:8;not null;uniqueIndex:idx_profile_site_user;index" json:"site"`
	FullName    string    `gorm:"size:128;not null" json:"fullName"`
	Email       string    `gorm:"size:255" json:"email"`
	IsChecker   bool      `gorm:"not null;default:false" json:"isChecker"`
	IsMerger    bool      `gorm:"not null;default:false" json:"isMerger"`
	IsLoader    bool      `gorm:"not null;default:false" json:"isLoader"`
	IsInspector bool      `gorm:"not null;default:false" json:"isInspector"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// HasRole 是否具备目录角色
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(role)) {
	case constants.DirectoryRoleChecker:
		return p.IsChecker
	case constants.DirectoryRoleMerger:
		return p.IsMerger
	case constants.DirectoryRoleLoader:
		return p.IsLoader
	case constants.DirectoryRoleInspector:
		return p.IsInspector
	}
	return false
}

// DisplayName 下拉展示名
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(p.Username)
}

// RoleColumn 目录角色对应的列名，未知角色返回空串
func RoleColumn(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case constants.DirectoryRoleChecker:
		return "is_checker"
	case constants.DirectoryRoleMerger:
		return "is_merger"
	case constants.DirectoryRoleLoader:
		return "is_loader"
	case constants.DirectoryRoleInspector:
		return "is_inspector"
	}
	return ""
}
