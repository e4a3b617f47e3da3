package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultDropdownTTL  = 5 * time.Minute
	defaultRouteInfoTTL = 10 * time.Minute
)

// DropdownSnapshot 站点人员下拉快照，整体读写，不做部分合并
type DropdownSnapshot struct {
	Site      string              `json:"site"`
	Options   map[string][]string `json:"options"` // 目录角色 -> 展示名
	FetchedAt int64               `json:"fetchedAt"`
}

// RouteInfo 线路预填信息
type RouteInfo struct {
	RouteNumber  string `json:"routeNumber"`
	RouteName    string `json:"routeName"`
	Site         string `json:"site"`
	DeliveryDate string `json:"deliveryDate"`
	Driver       string `json:"driver"`
	Helper       string `json:"helper"`
}

func dropdownKey(site string) string {
	return fmt.Sprintf("dropdown:%s", strings.ToUpper(strings.TrimSpace(site)))
}

func routeInfoKey(routeNumber string) string {
	return fmt.Sprintf("route_info:%s", strings.TrimSpace(routeNumber))
}

// GetDropdownSnapshot 读取下拉快照
func GetDropdownSnapshot(ctx context.Context, site string) (*DropdownSnapshot, bool, error) {
	var snapshot DropdownSnapshot
	hit, err := getValue(ctx, dropdownKey(site), &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetDropdownSnapshot 写入下拉快照
func SetDropdownSnapshot(ctx context.Context, snapshot *DropdownSnapshot, ttl time.Duration) error {
	if snapshot == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultDropdownTTL
	}
	return setValue(ctx, dropdownKey(snapshot.Site), snapshot, ttl)
}

// InvalidateDropdownSnapshot 删除下拉快照（人员档案变更后调用）
func InvalidateDropdownSnapshot(ctx context.Context, site string) error {
	return del(ctx, dropdownKey(site))
}

// GetRouteInfo 读取线路预填缓存
func GetRouteInfo(ctx context.Context, routeNumber string) (*RouteInfo, bool, error) {
	var info RouteInfo
	hit, err := getValue(ctx, routeInfoKey(routeNumber), &info)
	if err != nil || !hit {
		return nil, false, err
	}
	return &info, true, nil
}

// SetRouteInfo 写入线路预填缓存
func SetRouteInfo(ctx context.Context, info *RouteInfo, ttl time.Duration) error {
	if info == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRouteInfoTTL
	}
	return setValue(ctx, routeInfoKey(info.RouteNumber), info, ttl)
}
