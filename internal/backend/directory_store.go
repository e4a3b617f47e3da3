package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"
)

// DirectoryStore 远端人员档案存储
type DirectoryStore struct {
	client *Client
}

// NewDirectoryStore 创建远端人员档案存储
func NewDirectoryStore(client *Client) *DirectoryStore {
	return &DirectoryStore{client: client}
}

var _ repository.ProfileRepository = (*DirectoryStore)(nil)

// ListBySite 站点人员档案，site 为空时遍历全部站点
func (s *DirectoryStore) ListBySite(ctx context.Context, site string) ([]models.Profile, error) {
	sites := []string{site}
	if site == "" {
		sites = constants.Sites
	}
	profiles := make([]models.Profile, 0)
	for _, item := range sites {
		var rows []profileRow
		if err := s.client.get(ctx, "profiles/"+url.PathEscape(item), nil, &rows); err != nil {
			return nil, err
		}
		for i := range rows {
			profile := rows[i].toModel()
			if profile.Site == "" {
				profile.Site = item
			}
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

// ListNamesByRole 角色下拉
func (s *DirectoryStore) ListNamesByRole(ctx context.Context, role, site string) ([]string, error) {
	if models.RoleColumn(role) == "" {
		return nil, fmt.Errorf("unknown directory role: %s", role)
	}
	var options []dropdownOption
	path := "user_dropdown/" + url.PathEscape(strings.ToLower(role)) + "/" + url.PathEscape(site)
	if err := s.client.get(ctx, path, nil, &options); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(options))
	for _, option := range options {
		if option != "" {
			names = append(names, string(option))
		}
	}
	return names, nil
}

// GetByID 远端无单条接口，遍历全部站点查找
func (s *DirectoryStore) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	profiles, err := s.ListBySite(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

// GetByUsername 按站点与用户名查找
func (s *DirectoryStore) GetByUsername(ctx context.Context, username, site string) (*models.Profile, error) {
	profiles, err := s.ListBySite(ctx, site)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if strings.EqualFold(profiles[i].Username, strings.TrimSpace(username)) {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

// Create 创建人员档案
func (s *DirectoryStore) Create(ctx context.Context, profile *models.Profile) error {
	var created profileRow
	if err := s.client.send(ctx, http.MethodPost, "profile", newProfilePayload(profile), &created); err != nil {
		return err
	}
	if created.UserID > 0 {
		profile.ID = created.UserID
	}
	return nil
}

// Update 更新人员档案
func (s *DirectoryStore) Update(ctx context.Context, profile *models.Profile) error {
	return s.client.send(ctx, http.MethodPatch, "profile", newProfilePayload(profile), nil)
}

// Delete 删除人员档案
func (s *DirectoryStore) Delete(ctx context.Context, id uint) error {
	return s.client.send(ctx, http.MethodDelete, "profile/"+strconv.FormatUint(uint64(id), 10), nil, nil)
}
