package service

import (
	"context"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// DirectoryService 人员目录与下拉数据
type DirectoryService struct {
	repo     repository.ProfileRepository
	cacheTTL time.Duration
}

// NewDirectoryService 创建人员目录服务
func NewDirectoryService(repo repository.ProfileRepository, cacheTTL time.Duration) *DirectoryService {
	return &DirectoryService{repo: repo, cacheTTL: cacheTTL}
}

// ProfileInput 人员档案写入参数
type ProfileInput struct {
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Site        string `json:"site"`
	IsChecker   bool   `json:"isChecker"`
	IsMerger    bool   `json:"isMerger"`
	IsLoader    bool   `json:"isLoader"`
	IsInspector bool   `json:"isInspector"`
	IsActive    *bool  `json:"isActive"`
}

// Dropdowns 站点下拉快照；任一角色查询失败则整体失败，不返回部分结果
func (s *DirectoryService) Dropdowns(ctx context.Context, principal identity.Principal, site string) (*cache.DropdownSnapshot, error) {
	site, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	if snapshot, ok, err := cache.GetDropdownSnapshot(ctx, site); err == nil && ok {
		return snapshot, nil
	} else if err != nil {
		logger.Warnw("dropdown_cache_read_failed", "site", site, "error", err)
	}

	snapshot, err := s.loadSnapshot(identity.NewContext(ctx, principal), site)
	if err != nil {
		return nil, err
	}
	if err := cache.SetDropdownSnapshot(ctx, snapshot, s.cacheTTL); err != nil {
		logger.Warnw("dropdown_cache_write_failed", "site", site, "error", err)
	}
	return snapshot, nil
}

// RefreshDropdowns 重新加载全部站点的下拉快照并写入缓存
// 单个站点失败不影响其他站点，返回首个错误
func (s *DirectoryService) RefreshDropdowns(ctx context.Context, principal identity.Principal) (int, error) {
	ctx = identity.NewContext(ctx, principal)
	refreshed := 0
	var firstErr error
	for _, site := range constants.Sites {
		snapshot, err := s.loadSnapshot(ctx, site)
		if err == nil {
			err = cache.SetDropdownSnapshot(ctx, snapshot, s.cacheTTL)
		}
		if err != nil {
			logger.Warnw("dropdown_refresh_failed", "site", site, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}
	return refreshed, firstErr
}

func (s *DirectoryService) loadSnapshot(ctx context.Context, site string) (*cache.DropdownSnapshot, error) {
	options := make(map[string][]string, len(constants.DirectoryRoles))
	for _, role := range constants.DirectoryRoles {
		names, err := s.repo.ListNamesByRole(ctx, role, site)
		if err != nil {
			return nil, storeError("dropdown_"+role, err, nil)
		}
		if names == nil {
			names = []string{}
		}
		options[role] = names
	}
	return &cache.DropdownSnapshot{Site: site, Options: options, FetchedAt: time.Now().Unix()}, nil
}

// ListProfiles 站点人员档案
func (s *DirectoryService) ListProfiles(ctx context.Context, principal identity.Principal, site string) ([]models.Profile, error) {
	if strings.TrimSpace(site) != "" {
		normalized, err := normalizeSite(site)
		if err != nil {
			return nil, err
		}
		site = normalized
	}
	profiles, err := s.repo.ListBySite(identity.NewContext(ctx, principal), site)
	if err != nil {
		return nil, storeError("profile_list", err, nil)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}

// CreateProfile 创建人员档案
func (s *DirectoryService) CreateProfile(ctx context.Context, principal identity.Principal, input ProfileInput) (*models.Profile, error) {
	profile, err := buildProfile(nil, input)
	if err != nil {
		return nil, err
	}
	ctx = identity.NewContext(ctx, principal)
	existing, err := s.repo.GetByUsername(ctx, profile.Username, profile.Site)
	if err != nil {
		return nil, storeError("profile_lookup", err, input)
	}
	if existing != nil {
		return nil, ErrProfileExists
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, storeError("profile_create", err, input)
	}
	s.invalidate(ctx, profile.Site)
	logger.Infow("profile_created", "profile_id", profile.ID, "site", profile.Site, "user", principal.DisplayName())
	return profile, nil
}

// UpdateProfile 更新人员档案
func (s *DirectoryService) UpdateProfile(ctx context.Context, principal identity.Principal, id uint, input ProfileInput) (*models.Profile, error) {
	ctx = identity.NewContext(ctx, principal)
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("profile_lookup", err, input)
	}
	if existing == nil {
		return nil, ErrProfileNotFound
	}
	previousSite := existing.Site
	profile, err := buildProfile(existing, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, storeError("profile_update", err, input)
	}
	s.invalidate(ctx, previousSite)
	if profile.Site != previousSite {
		s.invalidate(ctx, profile.Site)
	}
	logger.Infow("profile_updated", "profile_id", profile.ID, "site", profile.Site, "user", principal.DisplayName())
	return profile, nil
}

// DeleteProfile 删除人员档案
func (s *DirectoryService) DeleteProfile(ctx context.Context, principal identity.Principal, id uint) error {
	ctx = identity.NewContext(ctx, principal)
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeError("profile_lookup", err, nil)
	}
	if existing == nil {
		return ErrProfileNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError("profile_delete", err, nil)
	}
	s.invalidate(ctx, existing.Site)
	logger.Infow("profile_deleted", "profile_id", id, "site", existing.Site, "user", principal.DisplayName())
	return nil
}

func (s *DirectoryService) invalidate(ctx context.Context, site string) {
	if err := cache.InvalidateDropdownSnapshot(ctx, site); err != nil {
		logger.Warnw("dropdown_cache_invalidate_failed", "site", site, "error", err)
	}
}

func buildProfile(base *models.Profile, input ProfileInput) (*models.Profile, error) {
	profile := &models.Profile{IsActive: true}
	if base != nil {
		copied := *base
		profile = &copied
	}
	site, err := normalizeSite(input.Site)
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(input.FullName)
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = fullName
	}
	if fullName == "" || username == "" {
		return nil, ErrProfileInvalid
	}
	profile.Site = site
	profile.Username = username
	profile.FullName = fullName
	profile.Email = strings.TrimSpace(input.Email)
	profile.IsChecker = input.IsChecker
	profile.IsMerger = input.IsMerger
	profile.IsLoader = input.IsLoader
	profile.IsInspector = input.IsInspector
	if input.IsActive != nil {
		profile.IsActive = *input.IsActive
	}
	return profile, nil
}
